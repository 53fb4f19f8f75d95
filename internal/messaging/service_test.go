package messaging

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/arnavk09/campusswap/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func expectCaller(mock sqlmock.Sqlmock, id uuid.UUID, uid string) {
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE uid =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "uid", "email"}).
			AddRow(id.String(), uid, uid+"@campus.edu"))
}

func TestSendRejectsBadText(t *testing.T) {
	svc := NewService(nil) // text validation rejects before any I/O
	itemID := uuid.New()

	cases := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t "},
		{"over length cap", strings.Repeat("x", models.MaxMessageLength+1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Send(context.Background(), "uid-1", SendInput{
				ItemID: &itemID,
				Text:   tc.text,
			})
			require.Error(t, err)

			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestSendRequiresTarget(t *testing.T) {
	svc := NewService(nil)

	_, err := svc.Send(context.Background(), "uid-1", SendInput{Text: "hello"})
	require.Error(t, err)

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestOutboundMessageReceiver(t *testing.T) {
	buyer := uuid.New()
	seller := uuid.New()
	conv := &models.Conversation{ID: uuid.New(), BuyerID: buyer, SellerID: seller}

	fromBuyer := outboundMessage(conv, buyer, "hi")
	assert.Equal(t, conv.ID, fromBuyer.ConversationID)
	assert.Equal(t, buyer, fromBuyer.SenderID)
	assert.Equal(t, seller, fromBuyer.ReceiverID)

	fromSeller := outboundMessage(conv, seller, "hello")
	assert.Equal(t, seller, fromSeller.SenderID)
	assert.Equal(t, buyer, fromSeller.ReceiverID)
}

func TestChronological(t *testing.T) {
	newest := models.Message{Text: "three"}
	middle := models.Message{Text: "two"}
	oldest := models.Message{Text: "one"}

	got := chronological([]models.Message{newest, middle, oldest})
	require.Len(t, got, 3)
	assert.Equal(t, "one", got[0].Text)
	assert.Equal(t, "two", got[1].Text)
	assert.Equal(t, "three", got[2].Text)

	assert.Empty(t, chronological(nil))
}

func TestSendFirstContactCreatesConversation(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db)

	buyerID := uuid.New()
	sellerID := uuid.New()
	itemID := uuid.New()
	convID := uuid.New()

	expectCaller(mock, buyerID, "buyer-uid")
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "items" WHERE id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seller_id", "title", "price"}).
			AddRow(itemID.String(), sellerID.String(), "Cycle", 3000.0))
	mock.ExpectQuery(`INSERT INTO "conversations" .*ON CONFLICT DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(convID.String()))
	mock.ExpectQuery(`INSERT INTO "messages"`).
		WithArgs(convID, buyerID, sellerID, "Is this still available?", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectExec(`UPDATE "conversations" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.Send(context.Background(), "buyer-uid", SendInput{
		ItemID: &itemID,
		Text:   "Is this still available?",
	})
	require.NoError(t, err)
	assert.Equal(t, convID, res.ConversationID)
	assert.Equal(t, buyerID, res.Message.SenderID)
	assert.Equal(t, sellerID, res.Message.ReceiverID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSendSecondContactReusesConversation(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db)

	buyerID := uuid.New()
	sellerID := uuid.New()
	itemID := uuid.New()
	existingID := uuid.New()

	expectCaller(mock, buyerID, "buyer-uid")
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "items" WHERE id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seller_id"}).AddRow(itemID.String(), sellerID.String()))
	// Conflicting insert affects zero rows; the existing row wins
	mock.ExpectQuery(`INSERT INTO "conversations" .*ON CONFLICT DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT \* FROM "conversations" WHERE item_id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "item_id", "buyer_id", "seller_id"}).
			AddRow(existingID.String(), itemID.String(), buyerID.String(), sellerID.String()))
	mock.ExpectQuery(`INSERT INTO "messages"`).
		WithArgs(existingID, buyerID, sellerID, "Still there?", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectExec(`UPDATE "conversations" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.Send(context.Background(), "buyer-uid", SendInput{
		ItemID: &itemID,
		Text:   "Still there?",
	})
	require.NoError(t, err)
	assert.Equal(t, existingID, res.ConversationID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSendRollsBackFirstContactOnInsertFailure(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db)

	buyerID := uuid.New()
	sellerID := uuid.New()
	itemID := uuid.New()

	expectCaller(mock, buyerID, "buyer-uid")
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "items" WHERE id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seller_id"}).AddRow(itemID.String(), sellerID.String()))
	mock.ExpectQuery(`INSERT INTO "conversations" .*ON CONFLICT DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectQuery(`INSERT INTO "messages"`).
		WillReturnError(errors.New("connection reset"))
	// The fresh conversation row must not survive the failed send
	mock.ExpectRollback()

	_, err := svc.Send(context.Background(), "buyer-uid", SendInput{
		ItemID: &itemID,
		Text:   "hello",
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSendToConversationRequiresParticipant(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db)

	strangerID := uuid.New()
	convID := uuid.New()

	expectCaller(mock, strangerID, "stranger-uid")
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "conversations" WHERE id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "buyer_id", "seller_id"}).
			AddRow(convID.String(), uuid.NewString(), uuid.NewString()))
	mock.ExpectRollback()

	_, err := svc.Send(context.Background(), "stranger-uid", SendInput{
		ConversationID: &convID,
		Text:           "let me in",
	})
	assert.ErrorIs(t, err, ErrConversationNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationMessagesNewestPageOldestFirst(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db)

	buyerID := uuid.New()
	sellerID := uuid.New()
	itemID := uuid.New()
	convID := uuid.New()
	now := time.Now()

	expectCaller(mock, buyerID, "buyer-uid")
	mock.ExpectQuery(`SELECT \* FROM "conversations" WHERE id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "item_id", "buyer_id", "seller_id"}).
			AddRow(convID.String(), itemID.String(), buyerID.String(), sellerID.String()))
	mock.ExpectQuery(`SELECT \* FROM "items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price"}).
			AddRow(itemID.String(), "Lamp", 250.0))
	mock.ExpectQuery(`SELECT \* FROM "messages" WHERE conversation_id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "text", "created_at"}).
			AddRow(uuid.NewString(), convID.String(), "three", now).
			AddRow(uuid.NewString(), convID.String(), "two", now.Add(-time.Minute)).
			AddRow(uuid.NewString(), convID.String(), "one", now.Add(-2*time.Minute)))

	view, err := svc.ConversationMessages(context.Background(), "buyer-uid", convID)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", view.Item.Title)
	require.Len(t, view.Messages, 3)
	assert.Equal(t, "one", view.Messages[0].Text)
	assert.Equal(t, "two", view.Messages[1].Text)
	assert.Equal(t, "three", view.Messages[2].Text)
	require.NoError(t, mock.ExpectationsWereMet())
}
