package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/db"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/db/redis"
	budgetuc "github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/budget"
)

var _ budgetuc.Store = (*Store)(nil)

func TestIncrBy_SetsDailyTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	key := "portfolio:budget:tokens:daily:2026-05-07"

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("INCRBY", key, "42")).
			Return(mock.Result(mock.RedisInt64(42))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("EXPIRE", key, "172800", "NX")).
			Return(mock.Result(mock.RedisInt64(1))),
	)

	s := New(redis.NewStoreForTest(c), 48*time.Hour, 62*24*time.Hour)
	if err := s.IncrBy(context.Background(), key, 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIncrBy_SetsMonthlyTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	key := "portfolio:budget:tokens:monthly:2026-05"

	c.EXPECT().
		Do(gomock.Any(), mock.Match("INCRBY", key, "7")).
		Return(mock.Result(mock.RedisInt64(7)))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("EXPIRE", key, "5356800", "NX")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := New(redis.NewStoreForTest(c), 48*time.Hour, 62*24*time.Hour)
	if err := s.IncrBy(context.Background(), key, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIncrBy_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "INCRBY" })).
		Return(mock.ErrorResult(errors.New("READONLY")))

	s := New(redis.NewStoreForTest(c), time.Hour, time.Hour)
	if err := s.IncrBy(context.Background(), "k:daily:x", 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		result  rueidis.RedisResult
		want    int64
		wantErr bool
	}{
		{name: "value", result: mock.Result(mock.RedisBlobString("1234")), want: 1234},
		{name: "missing key", result: mock.Result(mock.RedisNil()), want: 0},
		{name: "not a number", result: mock.Result(mock.RedisBlobString("abc")), wantErr: true},
		{name: "network error", result: mock.ErrorResult(context.DeadlineExceeded), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)
			c.EXPECT().Do(gomock.Any(), mock.Match("GET", "k")).Return(tc.result)

			s := New(redis.NewStoreForTest(c), time.Hour, time.Hour)
			got, err := s.Get(context.Background(), "k")
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if errors.Is(err, db.ErrKeyNotFound) {
					t.Error("missing keys must not surface as errors")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}
}
