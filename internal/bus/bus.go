// Package bus is the redis-backed flight data bus shared by the flight
// programs: the receiver reader publishes stick positions, the control
// forwarder publishes commands, the flight controller bridge publishes
// attitude and consumes commands.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Key layout on the redis side. Axis values are stored individually so
// redis-cli inspection stays trivial; receiver updates additionally go
// out on a pub/sub channel so consumers wake without polling.
const (
	keyAttitudeRoll    = "drone:attitude:roll"
	keyAttitudePitch   = "drone:attitude:pitch"
	keyAttitudeHeading = "drone:attitude:heading"

	keyRCRoll     = "drone:rc:roll"
	keyRCPitch    = "drone:rc:pitch"
	keyRCYaw      = "drone:rc:yaw"
	keyRCThrottle = "drone:rc:throttle"

	keyCmdRoll  = "drone:cmd:roll"
	keyCmdPitch = "drone:cmd:pitch"
	keyCmdYaw   = "drone:cmd:yaw"

	// ChannelRC carries a JSON-encoded Axes on every receiver update.
	ChannelRC = "drone:rc:updates"
)

// Attitude is the vehicle attitude as published by the bridge.
type Attitude struct {
	Roll    float64 `json:"roll"`
	Pitch   float64 `json:"pitch"`
	Heading float64 `json:"heading"`
}

// Axes is a normalized stick/command set, each axis in [-1, 1].
type Axes struct {
	Roll     float64 `json:"roll"`
	Pitch    float64 `json:"pitch"`
	Yaw      float64 `json:"yaw"`
	Throttle float64 `json:"throttle"`
}

// Clip returns the axes with every value clipped to [-1, 1].
func (a Axes) Clip() Axes {
	return Axes{
		Roll:     clip(a.Roll),
		Pitch:    clip(a.Pitch),
		Yaw:      clip(a.Yaw),
		Throttle: clip(a.Throttle),
	}
}

func clip(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// Bus wraps the redis client.
type Bus struct {
	client *redis.Client
}

// Connect builds a client from REDIS_URL (default localhost), and pings
// it so a missing server fails fast at program start.
func Connect(ctx context.Context) (*Bus, error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return &Bus{client: client}, nil
}

// Close releases the redis connection.
func (b *Bus) Close() error {
	return b.client.Close()
}

// SetAttitude publishes the vehicle attitude.
func (b *Bus) SetAttitude(ctx context.Context, a Attitude) error {
	return b.mset(ctx, map[string]float64{
		keyAttitudeRoll:    a.Roll,
		keyAttitudePitch:   a.Pitch,
		keyAttitudeHeading: a.Heading,
	})
}

// Attitude reads the latest vehicle attitude. Missing keys read as zero.
func (b *Bus) Attitude(ctx context.Context) (Attitude, error) {
	vals, err := b.mget(ctx, keyAttitudeRoll, keyAttitudePitch, keyAttitudeHeading)
	if err != nil {
		return Attitude{}, err
	}
	return Attitude{Roll: vals[0], Pitch: vals[1], Heading: vals[2]}, nil
}

// SetRC publishes a receiver update: the axis keys are written and the
// update is broadcast on ChannelRC.
func (b *Bus) SetRC(ctx context.Context, a Axes) error {
	err := b.mset(ctx, map[string]float64{
		keyRCRoll:     a.Roll,
		keyRCPitch:    a.Pitch,
		keyRCYaw:      a.Yaw,
		keyRCThrottle: a.Throttle,
	})
	if err != nil {
		return err
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal rc update: %w", err)
	}
	if err := b.client.Publish(ctx, ChannelRC, payload).Err(); err != nil {
		return fmt.Errorf("publish rc update: %w", err)
	}
	return nil
}

// RC reads the latest receiver axes.
func (b *Bus) RC(ctx context.Context) (Axes, error) {
	vals, err := b.mget(ctx, keyRCRoll, keyRCPitch, keyRCYaw, keyRCThrottle)
	if err != nil {
		return Axes{}, err
	}
	return Axes{Roll: vals[0], Pitch: vals[1], Yaw: vals[2], Throttle: vals[3]}, nil
}

// SetCommand publishes the control command axes.
func (b *Bus) SetCommand(ctx context.Context, a Axes) error {
	return b.mset(ctx, map[string]float64{
		keyCmdRoll:  a.Roll,
		keyCmdPitch: a.Pitch,
		keyCmdYaw:   a.Yaw,
	})
}

// Command reads the latest control command axes.
func (b *Bus) Command(ctx context.Context) (Axes, error) {
	vals, err := b.mget(ctx, keyCmdRoll, keyCmdPitch, keyCmdYaw)
	if err != nil {
		return Axes{}, err
	}
	return Axes{Roll: vals[0], Pitch: vals[1], Yaw: vals[2]}, nil
}

// RCSub is a subscription to receiver updates.
type RCSub struct {
	pubsub *redis.PubSub
}

// SubscribeRC subscribes to receiver updates on ChannelRC.
func (b *Bus) SubscribeRC(ctx context.Context) *RCSub {
	return &RCSub{pubsub: b.client.Subscribe(ctx, ChannelRC)}
}

// Next blocks until the next receiver update or context cancellation.
func (s *RCSub) Next(ctx context.Context) (Axes, error) {
	msg, err := s.pubsub.ReceiveMessage(ctx)
	if err != nil {
		return Axes{}, fmt.Errorf("receive rc update: %w", err)
	}
	var a Axes
	if err := json.Unmarshal([]byte(msg.Payload), &a); err != nil {
		return Axes{}, fmt.Errorf("decode rc update: %w", err)
	}
	return a, nil
}

// Close unsubscribes.
func (s *RCSub) Close() error {
	return s.pubsub.Close()
}

func (b *Bus) mset(ctx context.Context, kv map[string]float64) error {
	args := make([]interface{}, 0, 2*len(kv))
	for k, v := range kv {
		args = append(args, k, strconv.FormatFloat(v, 'f', -1, 64))
	}
	if err := b.client.MSet(ctx, args...).Err(); err != nil {
		return fmt.Errorf("bus mset: %w", err)
	}
	return nil
}

func (b *Bus) mget(ctx context.Context, keys ...string) ([]float64, error) {
	vals, err := b.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("bus mget: %w", err)
	}
	out := make([]float64, len(keys))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue // key never written
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("bus key %s holds %q: %w", keys[i], s, err)
		}
		out[i] = f
	}
	return out, nil
}
