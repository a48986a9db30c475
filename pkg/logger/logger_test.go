package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("Get works before and after Init", func() {
			So(Get(), ShouldNotBeNil)
			So(Init(), ShouldBeNil)
			So(Get(), ShouldNotBeNil)
			So(Named("test"), ShouldNotBeNil)
			So(Sync(), ShouldBeNil)
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		SetLevel(slog.LevelInfo)
		var buf bytes.Buffer
		log := New(&buf)
		ctx := context.Background()

		Convey("Fields are rendered with the caller source", func() {
			log.Info(ctx, "vote recorded",
				String("list", "fruits"),
				Int("winner", 2),
				Uint64("matches", 7),
				Float64("ability", 0.25),
				Bool("duplicate", false),
				Duration("took", time.Millisecond),
				Any("ids", []string{"a"}),
				Error(errors.New("boom")),
			)
			out := buf.String()
			So(out, ShouldContainSubstring, "msg=\"vote recorded\"")
			So(out, ShouldContainSubstring, "list=fruits")
			So(out, ShouldContainSubstring, "winner=2")
			So(out, ShouldContainSubstring, "duplicate=false")
			So(out, ShouldContainSubstring, "error=boom")
			So(out, ShouldContainSubstring, "source=logger_test.go:")
		})

		Convey("Named loggers group their fields", func() {
			log.Named("gateway").Warn(ctx, "load failed", String("key", "state"))
			So(buf.String(), ShouldContainSubstring, "gateway.key=state")
		})

		Convey("Records below the level are dropped", func() {
			log.Debug(ctx, "hidden")
			So(buf.Len(), ShouldEqual, 0)

			SetLevel(slog.LevelDebug)
			log.Debug(ctx, "shown")
			So(buf.String(), ShouldContainSubstring, "shown")
			SetLevel(slog.LevelInfo)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("SetLevelString", t, func() {
		for _, lvl := range []string{"debug", "INFO", "", "warn", "warning", " error "} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
		So(SetLevelString("info"), ShouldBeNil)
	})
}
