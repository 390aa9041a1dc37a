package app

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/j-veylop/neon-usage-tui/internal/models"
	"github.com/j-veylop/neon-usage-tui/internal/services"
	"github.com/j-veylop/neon-usage-tui/internal/services/consumption"
)

func TestTickCmd(t *testing.T) {
	if tickCmd() == nil {
		t.Error("tickCmd returned nil")
	}
}

func TestNotifyCmd(t *testing.T) {
	tests := []struct {
		typ  NotificationType
		want time.Duration
	}{
		{NotificationSuccess, DefaultNotificationDuration},
		{NotificationWarning, DefaultNotificationDuration},
		{NotificationError, LongNotificationDuration},
		{NotificationInfo, QuickNotificationDuration},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			msg := notifyCmd(tt.typ, "msg")()

			addMsg, ok := msg.(AddNotificationMsg)
			if !ok {
				t.Fatalf("Expected AddNotificationMsg, got %T", msg)
			}
			if addMsg.Type != tt.typ || addMsg.Message != "msg" {
				t.Errorf("got %+v", addMsg)
			}
			if addMsg.Duration != tt.want {
				t.Errorf("Duration = %v, want %v", addMsg.Duration, tt.want)
			}
		})
	}
}

func TestClearNotificationCmd(t *testing.T) {
	if clearNotificationCmd("id", time.Millisecond) == nil {
		t.Error("clearNotificationCmd returned nil")
	}
}

func TestUsageLoadedMsg(t *testing.T) {
	ok := usageLoadedMsg(&models.UsageResult{Seq: 4}, nil)
	if ok.Seq != 4 || ok.Result == nil || ok.Err != nil {
		t.Errorf("success message = %+v", ok)
	}

	wrapped := fmt.Errorf("load: %w", &consumption.RequestError{Seq: 9, Err: errors.New("502")})
	failed := usageLoadedMsg(nil, wrapped)
	if failed.Seq != 9 {
		t.Errorf("Seq = %d, want 9 from the request error", failed.Seq)
	}
	if failed.Result != nil {
		t.Error("failed message should carry no result")
	}

	bare := usageLoadedMsg(nil, errors.New("no org"))
	if bare.Seq != 0 || bare.Err == nil {
		t.Errorf("unsequenced failure = %+v", bare)
	}
}

func TestWaitForServiceEventCmd_Closed(t *testing.T) {
	events := make(chan services.ServiceEvent)
	close(events)
	if msg := waitForServiceEventCmd(events)(); msg != nil {
		t.Errorf("closed channel should yield nil, got %T", msg)
	}
}
