package redisx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ShowsPubSub broadcasts seat and catalog changes of a show to every
// instance, so each can drop its cached views of that show.
type ShowsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewShowsPubSub(rdb *redis.Client) *ShowsPubSub {
	return &ShowsPubSub{
		rdb:     rdb,
		channel: ChannelShowsChanged(),
	}
}

type ShowChanged struct {
	Type   string    `json:"type"`
	ShowID uuid.UUID `json:"show_id"`
	City   string    `json:"city,omitempty"`
	TsUnix int64     `json:"ts_unix"`
}

func (p *ShowsPubSub) PublishShowChanged(ctx context.Context, showID uuid.UUID, city string) error {
	msg := ShowChanged{
		Type:   "show_changed",
		ShowID: showID,
		City:   city,
		TsUnix: time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Subscribe blocks, calling handler for each well-formed message, until ctx
// is done or the subscription closes.
func (p *ShowsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, msg ShowChanged)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg ShowChanged
			if err := json.Unmarshal([]byte(m.Payload), &msg); err == nil &&
				msg.ShowID != uuid.Nil {
				handler(ctx, msg)
			}
		}
	}
}

// AlertPublisher pushes operator alerts onto a channel watched outside the
// service.
type AlertPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewAlertPublisher(rdb *redis.Client) *AlertPublisher {
	return &AlertPublisher{
		rdb:     rdb,
		channel: ChannelAlerts(),
	}
}

func (p *AlertPublisher) Publish(ctx context.Context, kind string, payload any) error {
	b, err := json.Marshal(struct {
		Kind    string `json:"kind"`
		Payload any    `json:"payload"`
		TsUnix  int64  `json:"ts_unix"`
	}{
		Kind:    kind,
		Payload: payload,
		TsUnix:  time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, b).Err()
}
