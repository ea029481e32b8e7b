package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap/zapcore"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			err := Init()
			So(err, ShouldBeNil)

			Convey("Then Get should return a logger", func() {
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with the console format", func() {
			err := Init(WithFormat("console"))
			So(err, ShouldBeNil)
			So(Get(), ShouldNotBeNil)
		})

		Convey("When initialized with an unknown format", func() {
			err := Init(WithFormat("xml"))

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "unknown log format")
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing JSON to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithOutput(zapcore.AddSync(&buf))), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging an info message with fields", func() {
			Get().Info(ctx, "signup accepted", String("activity", "Chess Club"), Int("participants", 3))

			var entry map[string]any
			So(json.Unmarshal(buf.Bytes(), &entry), ShouldBeNil)

			Convey("Then the fields should be present", func() {
				So(entry["msg"], ShouldEqual, "signup accepted")
				So(entry["activity"], ShouldEqual, "Chess Club")
				So(entry["participants"], ShouldEqual, float64(3))
				So(entry["caller"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When logging an error field", func() {
			Get().Error(ctx, "boom", Error(errors.New("broken")))

			Convey("Then the error text should be logged under the error key", func() {
				So(buf.String(), ShouldContainSubstring, `"error":"broken"`)
			})
		})

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "shown")

			Convey("Then info messages should be dropped", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "shown")
			})
		})

		Convey("When using a named logger", func() {
			Named("registry").Info(ctx, "named")

			Convey("Then the logger name should be recorded", func() {
				So(buf.String(), ShouldContainSubstring, `"logger":"registry"`)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(SetLevelString("debug"), ShouldBeNil)
		So(Level(), ShouldEqual, zapcore.DebugLevel)
		So(SetLevelString("WARNING"), ShouldBeNil)
		So(Level(), ShouldEqual, zapcore.WarnLevel)
		So(SetLevelString(""), ShouldBeNil)
		So(Level(), ShouldEqual, zapcore.InfoLevel)
		So(SetLevelString("loud"), ShouldNotBeNil)
	})
}

func TestNewNop(t *testing.T) {
	Convey("Given a no-op logger", t, func() {
		l := NewNop()

		Convey("Then logging should not panic", func() {
			So(func() {
				l.Info(context.Background(), "ignored")
				l.Named("x").Debug(context.Background(), "ignored")
			}, ShouldNotPanic)
		})
	})
}
