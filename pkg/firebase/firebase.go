package firebase

import (
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app, auth client and FCM client
type App struct {
	FirebaseApp     *firebase.App
	AuthClient      *auth.Client
	MessagingClient *messaging.Client
}

// InitFirebase initializes the Firebase application and its clients
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("Firebase credentials path not provided")
	}

	// Check if the credentials file exists
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("Firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	firebaseApp, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	messagingClient, err := firebaseApp.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase messaging client: %w", err)
	}

	log.Println("Firebase app, auth and messaging clients initialized successfully!")
	return &App{FirebaseApp: firebaseApp, AuthClient: authClient, MessagingClient: messagingClient}, nil
}

// Pusher sends best-effort push notifications over FCM to the topic named
// after the recipient UID. Delivery failures are logged and dropped, never
// retried.
type Pusher struct {
	client *messaging.Client
}

// NewPusher creates a new Pusher
func NewPusher(client *messaging.Client) *Pusher {
	return &Pusher{client: client}
}

// Push sends one notification to the user's device topic
func (p *Pusher) Push(ctx context.Context, uid, title, body string) {
	if p.client == nil {
		return
	}
	msg := &messaging.Message{
		Topic: "user-" + uid,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	}
	if _, err := p.client.Send(ctx, msg); err != nil {
		log.Printf("fcm: failed to push to %s: %v", uid, err)
	}
}
