package roleAuth

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrEthical07/roleAuth/identity"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{gate: make(chan struct{})}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

type panicSink struct{}

func (panicSink) Emit(context.Context, AuditEvent) {
	panic("sink exploded")
}

func auditHarness(t *testing.T, sink AuditSink, dropIfFull bool) *testHarness {
	t.Helper()
	return newHarness(t, func(cfg *Config, b *Builder) {
		cfg.Audit.Enabled = true
		cfg.Audit.BufferSize = 32
		cfg.Audit.DropIfFull = dropIfFull
		b.WithAuditSink(sink)
	})
}

func collectEvents(sink *ChannelSink, want int) []AuditEvent {
	events := make([]AuditEvent, 0, want)
	timeout := time.After(2 * time.Second)
	for len(events) < want {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-timeout:
			return events
		}
	}
	return events
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := &countingSink{}
	h := newHarness(t, func(_ *Config, b *Builder) {
		b.WithAuditSink(sink)
	})
	h.supervisor(t)

	_, _ = h.engine.Login(context.Background(), LoginRequest{Email: "sam@agency.example", Secret: "wrong", Role: identity.RoleSupervisor})
	h.engine.Close()

	if sink.Count() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.Count())
	}
}

func TestAuditLoginEvents(t *testing.T) {
	sink := NewChannelSink(8)
	h := auditHarness(t, sink, false)
	rec := h.recruiter(t)

	h.login(t, rec.Email, identity.RoleRecruiter)
	_, _ = h.engine.Login(context.Background(), LoginRequest{Email: rec.Email, Secret: "nope", Role: identity.RoleRecruiter})

	events := collectEvents(sink, 2)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	ok, failed := events[0], events[1]
	if ok.EventType != auditEventLoginSuccess || !ok.Success || ok.IdentityID != rec.ID || ok.Role != "recruiter" {
		t.Fatalf("unexpected success event: %+v", ok)
	}
	if failed.EventType != auditEventLoginFailure || failed.Success {
		t.Fatalf("unexpected failure event: %+v", failed)
	}
	if failed.Error != "invalid_credentials" {
		t.Fatalf("expected error code invalid_credentials, got %q", failed.Error)
	}
	if failed.Metadata["reason"] == "" {
		t.Fatal("expected failure reason in metadata")
	}
}

func TestAuditRenewalFailuresCarryIdentity(t *testing.T) {
	ctx := context.Background()
	sink := NewChannelSink(16)
	h := auditHarness(t, sink, false)
	sup := h.supervisor(t)
	rec := h.recruiter(t)

	supRes := h.login(t, sup.Email, identity.RoleSupervisor)
	recRes := h.login(t, rec.Email, identity.RoleRecruiter)

	if err := h.store.UpdateStatus(ctx, sup.ID, false, identity.ApprovalApproved); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := h.engine.RefreshSupervisor(ctx, supRes.AccessToken); err == nil {
		t.Fatal("expected refresh of deactivated supervisor to fail")
	}

	h.clock.Advance(time.Second)
	if _, err := h.engine.RenewRecruiterSession(ctx, recRes.RenewalToken); err != nil {
		t.Fatalf("RenewRecruiterSession: %v", err)
	}
	if _, err := h.engine.RenewRecruiterSession(ctx, recRes.RenewalToken); err == nil {
		t.Fatal("expected superseded renewal token to fail")
	}

	byType := make(map[string]AuditEvent)
	for _, ev := range collectEvents(sink, 5) {
		byType[ev.EventType] = ev
	}
	supFail, ok := byType[auditEventSupervisorRefreshFailure]
	if !ok {
		t.Fatal("missing supervisor refresh failure event")
	}
	if supFail.Success || supFail.IdentityID != sup.ID {
		t.Fatalf("unexpected supervisor refresh failure event: %+v", supFail)
	}
	recFail, ok := byType[auditEventRecruiterRenewFailure]
	if !ok {
		t.Fatal("missing recruiter renew failure event")
	}
	if recFail.Success || recFail.IdentityID != rec.ID {
		t.Fatalf("unexpected recruiter renew failure event: %+v", recFail)
	}
}

func TestAuditNoSecretsInEvents(t *testing.T) {
	sink := NewChannelSink(32)
	h := auditHarness(t, sink, false)
	rec := h.recruiter(t)

	res := h.login(t, rec.Email, identity.RoleRecruiter)
	h.clock.Advance(time.Second)
	renewed, err := h.engine.RenewRecruiterSession(context.Background(), res.RenewalToken)
	if err != nil {
		t.Fatalf("RenewRecruiterSession: %v", err)
	}
	_, _ = h.engine.RenewRecruiterSession(context.Background(), res.RenewalToken)

	needles := []string{testSecret, res.AccessToken, res.RenewalToken, renewed.RenewalToken, rec.CredentialHash}
	events := collectEvents(sink, 3)
	if len(events) == 0 {
		t.Fatal("expected audit events")
	}
	for _, ev := range events {
		for _, needle := range needles {
			if strings.Contains(ev.Error, needle) {
				t.Fatalf("secret leaked in error of %s", ev.EventType)
			}
			for k, v := range ev.Metadata {
				if strings.Contains(k, needle) || strings.Contains(v, needle) {
					t.Fatalf("secret leaked in metadata of %s", ev.EventType)
				}
			}
		}
	}
}

func TestAuditBufferFullDropIfFullTrueDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink, zap.NewNop())
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	start := time.Now()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if dispatcher.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestAuditBufferFullDropIfFullFalseBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: false,
	}, sink, zap.NewNop())
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	done := make(chan struct{})
	go func() {
		dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestAuditSinkPanicIsContained(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	dispatcher := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 2}, panicSink{}, zap.New(core))

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Close()

	if logs.FilterMessage("audit sink panicked").Len() != 1 {
		t.Fatalf("expected one panic log entry, got %d", logs.Len())
	}
}

func TestAuditDispatcherCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	sink := &countingSink{}
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 4,
		DropIfFull: true,
	}, sink, zap.NewNop())

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Close()
	dispatcher.Close()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	if sink.Count() != 1 {
		t.Fatalf("expected queued event to be flushed on close, got %d", sink.Count())
	}
}

func TestAuditJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), AuditEvent{
		Timestamp:  time.Now().UTC(),
		EventType:  auditEventLoginSuccess,
		IdentityID: "id-1",
		Role:       "supervisor",
		Success:    true,
	})

	if !buf.Contains("login_success") {
		t.Fatal("expected JSON line to contain event type")
	}
	if !buf.Contains(`"identity_id":"id-1"`) {
		t.Fatal("expected JSON line to contain identity id")
	}
	if !buf.Contains("\n") {
		t.Fatal("expected newline-terminated record")
	}
}

func TestAuditZapSinkLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewZapSink(zap.New(core))

	sink.Emit(context.Background(), AuditEvent{EventType: auditEventLoginSuccess, Success: true})
	sink.Emit(context.Background(), AuditEvent{EventType: auditEventLoginFailure, Error: "invalid_credentials"})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel || entries[1].Level != zapcore.WarnLevel {
		t.Fatalf("unexpected levels: %v %v", entries[0].Level, entries[1].Level)
	}
	if entries[1].LoggerName != "audit" {
		t.Fatalf("expected audit logger name, got %q", entries[1].LoggerName)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Contains(v string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Contains(b.buf.String(), v)
}
