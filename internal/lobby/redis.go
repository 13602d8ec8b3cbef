package lobby

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/park285/cardchess/internal/obslog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	ttlRoom = 24 * time.Hour
	// watchAttempts bounds retries when a watched key changes under us.
	watchAttempts = 5
)

// RedisPairer keeps the waiting slot and room metadata in Redis. The waiting
// slot is scoped to one server instance, since both sessions of a room must
// be connected to the process that runs it; room metadata and the active
// index are shared.
type RedisPairer struct {
	rdb      *redis.Client
	instance string
}

// NewRedisPairer connects to redisURL (redis:// or rediss://) and pings it.
func NewRedisPairer(ctx context.Context, redisURL, instance string) (*RedisPairer, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url required")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisPairerFromClient(rdb, instance), nil
}

func NewRedisPairerFromClient(rdb *redis.Client, instance string) *RedisPairer {
	if strings.TrimSpace(instance) == "" {
		instance = "default"
	}
	return &RedisPairer{rdb: rdb, instance: instance}
}

func (p *RedisPairer) keyWaiting() string       { return "cc:" + p.instance + ":waiting" }
func (p *RedisPairer) keyRoom(id string) string { return "cc:room:" + id }
func (p *RedisPairer) keyActive() string        { return "cc:rooms:active" }

func (p *RedisPairer) Join(ctx context.Context, session string) (Pairing, error) {
	session = strings.TrimSpace(session)
	if session == "" {
		return Pairing{}, ErrInvalidArgs
	}
	var out Pairing
	wk := p.keyWaiting()
	err := p.watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, wk).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if errors.Is(err, redis.Nil) {
			meta := &RoomMeta{ID: uuid.NewString(), State: StateWaiting, White: session, CreatedAt: time.Now()}
			enc, err := json.Marshal(meta)
			if err != nil {
				return err
			}
			pipe := tx.TxPipeline()
			pipe.Set(ctx, wk, enc, ttlRoom)
			pipe.Set(ctx, p.keyRoom(meta.ID), enc, ttlRoom)
			if _, err := pipe.Exec(ctx); err != nil {
				return err
			}
			out = Pairing{RoomID: meta.ID, White: session}
			return nil
		}

		var meta RoomMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return fmt.Errorf("decode waiting room: %w", err)
		}
		if meta.White == session {
			return ErrAlreadyWaiting
		}
		meta.Black = session
		meta.State = StateActive
		meta.PairedAt = time.Now()
		enc, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		pipe := tx.TxPipeline()
		pipe.Del(ctx, wk)
		pipe.Set(ctx, p.keyRoom(meta.ID), enc, ttlRoom)
		pipe.SAdd(ctx, p.keyActive(), meta.ID)
		pipe.Expire(ctx, p.keyActive(), ttlRoom)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		out = Pairing{RoomID: meta.ID, White: meta.White, Black: meta.Black, Paired: true}
		return nil
	}, wk)
	if err != nil {
		obslog.L().Warn("lobby_join_error", zap.String("session", session), zap.Error(err))
		return Pairing{}, err
	}
	obslog.L().Info("lobby_join",
		zap.String("session", session),
		zap.String("room_id", out.RoomID),
		zap.Bool("paired", out.Paired),
	)
	return out, nil
}

func (p *RedisPairer) Leave(ctx context.Context, session string) error {
	wk := p.keyWaiting()
	return p.watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, wk).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		var meta RoomMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return err
		}
		if meta.White != session {
			return nil
		}
		pipe := tx.TxPipeline()
		pipe.Del(ctx, wk, p.keyRoom(meta.ID))
		_, err = pipe.Exec(ctx)
		return err
	}, wk)
}

// watch runs fn in a WATCH transaction on keys and runs it again when
// another client touched a key before EXEC.
func (p *RedisPairer) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	var err error
	for attempt := 1; attempt <= watchAttempts; attempt++ {
		err = p.rdb.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		obslog.L().Debug("lobby_tx_conflict", zap.Strings("keys", keys), zap.Int("attempt", attempt))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 5 * time.Millisecond):
		}
	}
	return err
}

func (p *RedisPairer) Finish(ctx context.Context, roomID string) error {
	meta, err := p.Room(ctx, roomID)
	if err != nil {
		return err
	}
	pipe := p.rdb.TxPipeline()
	pipe.SRem(ctx, p.keyActive(), roomID)
	if meta != nil {
		meta.State = StateFinished
		if enc, err := json.Marshal(meta); err == nil {
			pipe.Set(ctx, p.keyRoom(roomID), enc, time.Hour)
		}
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Room loads the metadata of a room, or nil if unknown.
func (p *RedisPairer) Room(ctx context.Context, roomID string) (*RoomMeta, error) {
	raw, err := p.rdb.Get(ctx, p.keyRoom(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m RoomMeta
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (p *RedisPairer) Active(ctx context.Context) ([]string, error) {
	ids, err := p.rdb.SMembers(ctx, p.keyActive()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

func (p *RedisPairer) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if s := strings.TrimPrefix(u.Path, "/"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			db = n
		}
	}
	opts := &redis.Options{Addr: u.Host, DB: db}
	if u.User != nil {
		opts.Username = u.User.Username()
		opts.Password, _ = u.User.Password()
	}
	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: u.Hostname()}
	}
	return opts, nil
}
