package event

import (
	"testing"
)

type recordingRestarter struct {
	roles []Role
	err   error
}

func (r *recordingRestarter) Restart(role Role) error {
	r.roles = append(r.roles, role)
	return r.err
}

func TestPublishWithoutSinkDropsSilently(t *testing.T) {
	b := NewBus()
	// Must not panic or block.
	b.Publish(Event{Role: RoleServer, Kind: KindStdout, Channel: ChannelServerOutput, Message: "x"})
}

func TestPublishStampsTimeAndForwards(t *testing.T) {
	b := NewBus()
	var got []Event
	b.SetSink(func(e Event) { got = append(got, e) })
	b.Publish(Event{Role: RoleBrowser, Kind: KindStderr, Channel: ChannelBrowserOutput, Message: "boom"})
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Time.IsZero() {
		t.Fatalf("time not stamped")
	}
	if got[0].Message != "boom" || got[0].Kind != KindStderr {
		t.Fatalf("unexpected event %+v", got[0])
	}
}

func TestDispatchWithoutRestarter(t *testing.T) {
	b := NewBus()
	if err := b.Dispatch(CommandRestartServer); err == nil {
		t.Fatalf("expected error with no restarter")
	}
}

func TestDispatchRoutesCommands(t *testing.T) {
	b := NewBus()
	r := &recordingRestarter{}
	b.SetRestarter(r)
	if err := b.Dispatch(CommandRestartServer); err != nil {
		t.Fatalf("server: %v", err)
	}
	if err := b.Dispatch(CommandRestartBrowser); err != nil {
		t.Fatalf("browser: %v", err)
	}
	if len(r.roles) != 2 || r.roles[0] != RoleServer || r.roles[1] != RoleBrowser {
		t.Fatalf("unexpected routing %v", r.roles)
	}
	if err := b.Dispatch(Command("restart-everything")); err == nil {
		t.Fatalf("expected error for unknown command")
	}
}

func TestChannelHelpers(t *testing.T) {
	if OutputChannel(RoleServer) != "py-output" || OutputChannel(RoleBrowser) != "chrome-output" {
		t.Fatalf("output channels wrong")
	}
	if StartedChannel(RoleServer) != "py-started" || StartedChannel(RoleBrowser) != "chrome-started" {
		t.Fatalf("started channels wrong")
	}
}
