package realtime

import (
	"context"
	"encoding/json"

	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
)

// FCMNotifier pushes events as Firebase Cloud Messaging data messages to the
// per-user topic, reaching devices that hold no live websocket. Each client
// subscribes itself to "user_<id>" after sign-in.
type FCMNotifier struct {
	client *messaging.Client
	log    *logrus.Logger
}

func NewFCMNotifier(client *messaging.Client, log *logrus.Logger) *FCMNotifier {
	return &FCMNotifier{client: client, log: log}
}

// NotifyUser sends one data message to the user's topic.
func (n *FCMNotifier) NotifyUser(ctx context.Context, userID, event string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := &messaging.Message{
		Topic: "user_" + userID,
		Data: map[string]string{
			"event":   event,
			"payload": string(body),
		},
	}
	id, err := n.client.Send(ctx, msg)
	if err != nil {
		return err
	}
	n.log.WithFields(logrus.Fields{"user_id": userID, "event": event, "message_id": id}).
		Debug("fcm push sent")
	return nil
}
