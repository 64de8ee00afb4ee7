package services

import (
	"context"
	"errors"
	"fmt"

	"duo-journal-backend/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// Pusher delivers device push notifications
type Pusher interface {
	Push(ctx context.Context, deviceTokens []string, title, body string) error
}

// NopPusher drops every push; used when APNs is not configured
type NopPusher struct{}

// Push does nothing
func (NopPusher) Push(context.Context, []string, string, string) error { return nil }

// APNsPusher sends pushes through Apple Push Notification service
type APNsPusher struct {
	client *apns2.Client
	topic  string
}

// NewPusher builds a pusher from configuration
func NewPusher(cfg config.APNsConfig) (Pusher, error) {
	if !cfg.Enabled {
		return NopPusher{}, nil
	}

	authKey, err := token.AuthKeyFromFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs key: %w", err)
	}
	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsPusher{client: client, topic: cfg.Topic}, nil
}

// Push sends the alert to every device token, returning the joined failures
func (p *APNsPusher) Push(ctx context.Context, deviceTokens []string, title, body string) error {
	var errs []error
	for _, deviceToken := range deviceTokens {
		notification := &apns2.Notification{
			DeviceToken: deviceToken,
			Topic:       p.topic,
			Payload:     payload.NewPayload().AlertTitle(title).AlertBody(body).Sound("default"),
		}

		res, err := p.client.PushWithContext(ctx, notification)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to push: %w", err))
			continue
		}
		if !res.Sent() {
			errs = append(errs, fmt.Errorf("push rejected: %d %s", res.StatusCode, res.Reason))
			continue
		}

		log.Debug().
			Str("apns_id", res.ApnsID).
			Msg("Push sent")
	}
	return errors.Join(errs...)
}
