package limiter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

/************ fake pgx ************/
type fakeRow struct{ scan func(dest ...any) error }

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakePool struct {
	qrErr         error
	qrBlockedTill *time.Time
	qrFailsRet    int

	lastExecSQL  string
	lastExecArgs []any
	execErr      error
	execTag      pgconn.CommandTag
}

func (f *fakePool) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.lastExecSQL = sql
	f.lastExecArgs = args
	return f.execTag, f.execErr
}

func (f *fakePool) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	switch {
	case strings.Contains(sql, "SELECT blocked_until"):
		return fakeRow{scan: func(dest ...any) error {
			if f.qrErr != nil {
				return f.qrErr
			}
			if f.qrBlockedTill != nil {
				*(dest[0].(*time.Time)) = *f.qrBlockedTill
			} else {
				*(dest[0].(*time.Time)) = time.Time{} // 'epoch'
			}
			return nil
		}}
	case strings.Contains(sql, "RETURNING fail_count"):
		return fakeRow{scan: func(dest ...any) error {
			if f.qrErr != nil {
				return f.qrErr
			}
			*(dest[0].(*int)) = f.qrFailsRet
			return nil
		}}
	default:
		return fakeRow{scan: func(...any) error { return errors.New("unexpected query") }}
	}
}

func TestAllow_NoRow_Allows(t *testing.T) {
	fp := &fakePool{qrErr: pgx.ErrNoRows}
	l := NewPG(fp, DefaultPolicy)

	ok, dur, err := l.Allow(context.Background(), "u", []byte("h"))
	if err != nil || !ok || dur != 0 {
		t.Fatalf("Allow no-row: ok=%v dur=%v err=%v", ok, dur, err)
	}
}

func TestAllow_BlockedUntilFuture(t *testing.T) {
	fut := time.Now().Add(10 * time.Minute)
	fp := &fakePool{qrBlockedTill: &fut}
	l := NewPG(fp, DefaultPolicy)

	ok, dur, err := l.Allow(context.Background(), "u", []byte("h"))
	if err != nil || ok || dur <= 0 {
		t.Fatalf("Allow blocked: ok=%v dur=%v err=%v", ok, dur, err)
	}
}

func TestAllow_PastOrEpoch_Allows(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	fp := &fakePool{qrBlockedTill: &past}
	l := NewPG(fp, DefaultPolicy)

	ok, dur, err := l.Allow(context.Background(), "u", []byte("h"))
	if err != nil || !ok || dur != 0 {
		t.Fatalf("Allow past: ok=%v dur=%v err=%v", ok, dur, err)
	}
}

func TestAllow_DBError_Propagates(t *testing.T) {
	fp := &fakePool{qrErr: errors.New("db boom")}
	l := NewPG(fp, DefaultPolicy)

	ok, _, err := l.Allow(context.Background(), "u", []byte("h"))
	if err == nil || ok {
		t.Fatalf("want error propagate, got ok=%v err=%v", ok, err)
	}
}

func TestSuccess_ExecError_Propagates(t *testing.T) {
	fp := &fakePool{execErr: errors.New("exec fail")}
	l := NewPG(fp, DefaultPolicy)

	if err := l.Success(context.Background(), "u", []byte("h")); err == nil {
		t.Fatalf("want exec error")
	}
}

func TestSuccess_OK(t *testing.T) {
	fp := &fakePool{}
	l := NewPG(fp, DefaultPolicy)

	if err := l.Success(context.Background(), "u", []byte("h")); err != nil {
		t.Fatalf("success err: %v", err)
	}
	if !strings.Contains(fp.lastExecSQL, "INSERT INTO login_attempts") {
		t.Fatalf("unexpected exec: %s", fp.lastExecSQL)
	}
}

func TestFailure_Increments_NoBlock(t *testing.T) {
	fp := &fakePool{qrFailsRet: 2}
	l := NewPG(fp, Policy{Window: 5 * time.Minute, MaxFails: 5, BlockFor: 15 * time.Minute})

	blocked, dur, err := l.Failure(context.Background(), "u", []byte("h"))
	if err != nil || blocked || dur != 0 {
		t.Fatalf("Failure no block: blocked=%v dur=%v err=%v", blocked, dur, err)
	}
	if fp.lastExecSQL != "" {
		t.Fatalf("no block update expected, exec=%s", fp.lastExecSQL)
	}
}

func TestFailure_BlocksAtThreshold(t *testing.T) {
	fp := &fakePool{qrFailsRet: 5}
	l := NewPG(fp, Policy{Window: 5 * time.Minute, MaxFails: 5, BlockFor: 10 * time.Minute})

	blocked, dur, err := l.Failure(context.Background(), "u", []byte("h"))
	if err != nil || !blocked || dur != 10*time.Minute {
		t.Fatalf("Failure block: blocked=%v dur=%v err=%v", blocked, dur, err)
	}
	if !strings.Contains(fp.lastExecSQL, "UPDATE login_attempts SET blocked_until") {
		t.Fatalf("must update blocked_until, exec=%s", fp.lastExecSQL)
	}
}

func TestFailure_DBErrorOnReturning(t *testing.T) {
	fp := &fakePool{qrErr: errors.New("query error")}
	l := NewPG(fp, DefaultPolicy)

	if _, _, err := l.Failure(context.Background(), "u", []byte("h")); err == nil {
		t.Fatalf("want error from returning fail_count")
	}
}

func TestPurge(t *testing.T) {
	fp := &fakePool{execTag: pgconn.NewCommandTag("DELETE 3")}
	l := NewPG(fp, DefaultPolicy)
	before := time.Now().Add(-time.Hour)

	n, err := l.Purge(context.Background(), before)
	if err != nil || n != 3 {
		t.Fatalf("Purge: n=%d err=%v", n, err)
	}
	if !strings.Contains(fp.lastExecSQL, "DELETE FROM login_attempts") || fp.lastExecArgs[0] != before {
		t.Fatalf("unexpected purge exec: %s %v", fp.lastExecSQL, fp.lastExecArgs)
	}

	fp.execErr = errors.New("boom")
	if _, err := l.Purge(context.Background(), before); err == nil {
		t.Fatalf("want purge error")
	}
}

func TestHashIP_Determinism(t *testing.T) {
	a := HashIP("1.2.3.4:123")
	b := HashIP("1.2.3.4:123")
	c := HashIP("5.6.7.8:321")
	if string(a) != string(b) || string(a) == string(c) || len(a) != 32 {
		t.Fatalf("hash mismatch/len: %d", len(a))
	}
}

func TestNop_NeverBlocks(t *testing.T) {
	var l Limiter = Nop{}
	ok, _, err := l.Allow(context.Background(), "u", nil)
	if !ok || err != nil {
		t.Fatalf("nop allow: %v %v", ok, err)
	}
	blocked, _, err := l.Failure(context.Background(), "u", nil)
	if blocked || err != nil {
		t.Fatalf("nop failure: %v %v", blocked, err)
	}
	if err := l.Success(context.Background(), "u", nil); err != nil {
		t.Fatalf("nop success: %v", err)
	}
}
