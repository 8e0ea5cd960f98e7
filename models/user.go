package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 代表拍賣系統中的成員
// 身分與登入由外部系統負責，這裡只保留排程與結算需要的最小欄位
type User struct {
	gorm.Model

	ID       uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	Username string    `gorm:"type:varchar(255);not null;<-:create"`
}
