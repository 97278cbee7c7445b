package db

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	OrdersCollection        *mongo.Collection
	AddressesCollection     *mongo.Collection
	MeetingsCollection      *mongo.Collection
	DesignsCollection       *mongo.Collection
	UserCollection          *mongo.Collection
	WebhookEventsCollection *mongo.Collection
	Client                  *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	var err error
	Client, err = mongo.Connect(context.TODO(), options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := Client.Database("karigardb")
	OrdersCollection = database.Collection("orders")
	AddressesCollection = database.Collection("addresses")
	MeetingsCollection = database.Collection("meetings")
	DesignsCollection = database.Collection("designs")
	UserCollection = database.Collection("users")
	WebhookEventsCollection = database.Collection("webhook_events")
}

// EnsureIndexes creates the unique indexes the write paths rely on:
// one meeting per order, one webhook ledger entry per gateway event.
func EnsureIndexes(ctx context.Context) error {
	_, err := MeetingsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"orderid": 1},
		Options: options.Index().SetUnique(true).SetName("unique_orderid"),
	})
	if err != nil {
		return err
	}
	_, err = WebhookEventsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"eventid": 1},
		Options: options.Index().SetUnique(true).SetName("unique_eventid"),
	})
	return err
}
