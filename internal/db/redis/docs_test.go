package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/sagar8080/semantic-search-system/internal/db"
)

func TestPutDoc(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("JSON.SET", "pr:1", "$", `{"title":"Bridge"}`)).
		Return(mock.Result(mock.RedisString("OK")))

	s := newTestStore(c)
	if err := s.PutDoc(context.Background(), "pr:1", []byte(`{"title":"Bridge"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPutDoc_ErrorNamesKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().Do(gomock.Any(), gomock.Any()).Return(mock.ErrorResult(context.DeadlineExceeded))

	s := newTestStore(c)
	err := s.PutDoc(context.Background(), "pr:1", []byte(`{}`))
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpJSONSet || dbErr.Key != "pr:1" {
		t.Fatalf("expected JSON.SET error for pr:1, got %v", err)
	}
}

func TestGetDoc(t *testing.T) {
	tests := []struct {
		name    string
		reply   rueidis.RedisResult
		want    string
		wantErr error
	}{
		{"found", mock.Result(mock.RedisBlobString(`{"id":"1"}`)), `{"id":"1"}`, nil},
		{"nil reply", mock.Result(mock.RedisNil()), "", db.ErrKeyNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)
			c.EXPECT().Do(gomock.Any(), mock.Match("JSON.GET", "pr:1")).Return(tt.reply)

			got, err := newTestStore(c).GetDoc(context.Background(), "pr:1")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if string(got) != tt.want {
				t.Errorf("doc = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGetDoc_TransportError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().Do(gomock.Any(), gomock.Any()).Return(mock.ErrorResult(context.DeadlineExceeded))

	_, err := newTestStore(c).GetDoc(context.Background(), "pr:1")
	if err == nil || errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected a non-NotFound error, got %v", err)
	}
}

func TestDeleteDoc(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().Do(gomock.Any(), mock.Match("DEL", "pr:1")).Return(mock.Result(mock.RedisInt64(1)))
	c.EXPECT().Do(gomock.Any(), mock.Match("DEL", "pr:2")).Return(mock.Result(mock.RedisInt64(0)))

	s := newTestStore(c)
	existed, err := s.DeleteDoc(context.Background(), "pr:1")
	if err != nil || !existed {
		t.Fatalf("pr:1: existed=%v err=%v", existed, err)
	}
	existed, err = s.DeleteDoc(context.Background(), "pr:2")
	if err != nil || existed {
		t.Fatalf("pr:2: existed=%v err=%v", existed, err)
	}
}
