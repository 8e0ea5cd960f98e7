package redis

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"spacebid/events"
)

func init() {
	// 將日誌輸出重定向到io.Discard
	log.SetOutput(io.Discard)
}

func setupTest(t *testing.T) (*redis.Client, redismock.ClientMock, func()) {
	db, mock := redismock.NewClientMock()
	return db, mock, func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	}
}

func sampleEvent() events.Event {
	spaceID := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	userID := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	return events.Event{
		Type:      events.TypeBidPlaced,
		AuctionID: uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		RoundNum:  2,
		SpaceID:   &spaceID,
		UserID:    &userID,
		At:        time.Date(2026, 3, 7, 18, 0, 0, 0, time.UTC),
	}
}
