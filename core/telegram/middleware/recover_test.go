package middleware

import (
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func updateContext(t *testing.T) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}
	return b.NewContext(tele.Update{ID: 9, Message: &tele.Message{Text: "x", Sender: &tele.User{ID: 3}}})
}

func TestRecoverHandsPanicToCallback(t *testing.T) {
	c := updateContext(t)
	sentinel := errors.New("reported")

	var got error
	h := Recover(func(_ tele.Context, err error) error {
		got = err
		return sentinel
	})(func(tele.Context) error { panic("boom") })

	if err := h(c); !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want the callback result", err)
	}
	var perr *PanicError
	if !errors.As(got, &perr) {
		t.Fatalf("callback got %T, want *PanicError", got)
	}
	if perr.Value != "boom" || perr.Error() != "panic: boom" {
		t.Fatalf("panic error = %+v (%q)", perr.Value, perr.Error())
	}
}

func TestRecoverWithoutCallback(t *testing.T) {
	c := updateContext(t)
	h := RecoverMiddleware(func(tele.Context) error { panic(errors.New("boom")) })
	if err := h(c); err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
}

func TestRecoverPassesThroughErrors(t *testing.T) {
	c := updateContext(t)
	want := errors.New("handler failed")
	called := false
	h := Recover(func(tele.Context, error) error {
		called = true
		return nil
	})(func(tele.Context) error { return want })

	if err := h(c); !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
	if called {
		t.Fatal("callback must only run on panic")
	}
}
