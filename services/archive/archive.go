package archive

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trading_assistant/models"
	"trading_assistant/services/sentiment"
)

// MongoDB database and collection names
const (
	databaseName            = "trading_assistant"
	deliveriesCollection    = "notification_deliveries"
	sentimentCollection     = "sentiment_snapshots"
	archiveOperationTimeout = 5 * time.Second
)

// Service archives delivered notifications and sentiment snapshots to
// MongoDB. The archive is optional: with no URI configured every method
// is a silent no-op, and write failures are logged, never propagated.
type Service struct {
	client   *mongo.Client
	database *mongo.Database
	enabled  bool
}

// DeliveryRecord is one archived notification delivery
type DeliveryRecord struct {
	Channel    string    `bson:"channel"`
	Title      string    `bson:"title"`
	Delivered  bool      `bson:"delivered"`
	RecordedAt time.Time `bson:"recorded_at"`
}

// SentimentSnapshot is one archived combined sentiment reading
type SentimentSnapshot struct {
	Ticker            string    `bson:"ticker" json:"ticker"`
	CombinedSentiment float64   `bson:"combined_sentiment" json:"combined_sentiment"`
	SentimentLabel    string    `bson:"sentiment_label" json:"sentiment_label"`
	RedditSentiment   float64   `bson:"reddit_sentiment" json:"reddit_sentiment"`
	NewsSentiment     float64   `bson:"news_sentiment" json:"news_sentiment"`
	TakenAt           time.Time `bson:"taken_at" json:"taken_at"`
}

// NewService connects to MongoDB when a URI is configured. An empty URI
// returns a disabled service.
func NewService(uri string) (*Service, error) {
	if uri == "" {
		log.Println("MongoDB not configured, archiving disabled")
		return &Service{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("MongoDB ping failed: %w", err)
	}

	log.Println("MongoDB archive connected")
	return &Service{
		client:   client,
		database: client.Database(databaseName),
		enabled:  true,
	}, nil
}

// Enabled reports whether archiving is active
func (s *Service) Enabled() bool {
	return s.enabled
}

// RecordDelivery archives a notification delivery attempt
func (s *Service) RecordDelivery(channel, title string, delivered bool) {
	if !s.enabled {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveOperationTimeout)
	defer cancel()

	_, err := s.database.Collection(deliveriesCollection).InsertOne(ctx, DeliveryRecord{
		Channel:    channel,
		Title:      title,
		Delivered:  delivered,
		RecordedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("Error archiving delivery record: %v", err)
	}
}

// RecordTriggeredReminder archives a triggered reminder row
func (s *Service) RecordTriggeredReminder(r *models.Reminder) {
	if !s.enabled {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveOperationTimeout)
	defer cancel()

	_, err := s.database.Collection(deliveriesCollection).InsertOne(ctx, bson.M{
		"channel":     r.AlertType,
		"title":       r.Title,
		"reminder_id": r.ID,
		"ticker":      r.Ticker,
		"recorded_at": time.Now().UTC(),
	})
	if err != nil {
		log.Printf("Error archiving reminder %d: %v", r.ID, err)
	}
}

// SaveSentimentSnapshot archives a combined sentiment reading
func (s *Service) SaveSentimentSnapshot(report *sentiment.CombinedReport) {
	if !s.enabled {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveOperationTimeout)
	defer cancel()

	_, err := s.database.Collection(sentimentCollection).InsertOne(ctx, SentimentSnapshot{
		Ticker:            report.Ticker,
		CombinedSentiment: report.CombinedSentiment,
		SentimentLabel:    report.SentimentLabel,
		RedditSentiment:   report.RedditSentiment,
		NewsSentiment:     report.NewsSentiment,
		TakenAt:           time.Now().UTC(),
	})
	if err != nil {
		log.Printf("Error archiving sentiment snapshot for %s: %v", report.Ticker, err)
	}
}

// RecentSnapshots returns the most recent sentiment snapshots for a
// ticker, newest first
func (s *Service) RecentSnapshots(ctx context.Context, ticker string, limit int) ([]SentimentSnapshot, error) {
	if !s.enabled {
		return []SentimentSnapshot{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	opCtx, cancel := context.WithTimeout(ctx, archiveOperationTimeout)
	defer cancel()

	cursor, err := s.database.Collection(sentimentCollection).Find(opCtx,
		bson.M{"ticker": ticker},
		options.Find().SetSort(bson.D{{Key: "taken_at", Value: -1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer cursor.Close(opCtx)

	snapshots := []SentimentSnapshot{}
	if err := cursor.All(opCtx, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// Close disconnects from MongoDB
func (s *Service) Close() error {
	if !s.enabled {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveOperationTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
