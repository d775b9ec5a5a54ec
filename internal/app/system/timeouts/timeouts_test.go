package timeouts

import (
	"testing"
	"time"
)

func TestConfigure_KeepsZeroFields(t *testing.T) {
	defer Reset()

	Configure(Config{Short: time.Second, RoleWait: 500 * time.Millisecond})

	if Short() != time.Second {
		t.Errorf("Short: got %v", Short())
	}
	if RoleWait() != 500*time.Millisecond {
		t.Errorf("RoleWait: got %v", RoleWait())
	}
	if Medium() != DefaultMedium {
		t.Errorf("Medium should keep default, got %v", Medium())
	}
}

func TestReset(t *testing.T) {
	Configure(Config{Ping: time.Minute})
	Reset()
	if Ping() != DefaultPing {
		t.Errorf("Ping after reset: got %v", Ping())
	}
}
