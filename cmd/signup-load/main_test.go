package main

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/okian/activities/internal/adapters/http/api"
	service "github.com/okian/activities/internal/app"
	"github.com/okian/activities/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestRootCommand(t *testing.T) {
	convey.Convey("Given the signup-load command", t, func() {
		cmd := newRootCmd()

		convey.Convey("Then its flags should carry the defaults", func() {
			url, err := cmd.Flags().GetString("url")
			convey.So(err, convey.ShouldBeNil)
			convey.So(url, convey.ShouldEqual, "http://localhost:8000")

			activity, err := cmd.Flags().GetString("activity")
			convey.So(err, convey.ShouldBeNil)
			convey.So(activity, convey.ShouldEqual, "Chess Club")
		})

		convey.Convey("When run against a live service", func() {
			svc := service.New(service.WithLogger(logger.NewNop()))
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			defer svc.Stop()
			srv := httptest.NewServer(api.NewServer(svc, svc).Router(context.Background()))
			defer srv.Close()

			cmd.SetArgs([]string{"--url", srv.URL, "-a", "Art Studio", "-n", "4", "-c", "2"})
			err := cmd.Execute()

			convey.Convey("Then it should succeed and leave the roster as it was", func() {
				convey.So(err, convey.ShouldBeNil)
				activities, err := svc.ListActivities(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(activities["Art Studio"].Participants, convey.ShouldHaveLength, 2)
			})
		})

		convey.Convey("When given an invalid student count", func() {
			cmd.SetArgs([]string{"--students", "0"})
			err := cmd.Execute()

			convey.Convey("Then it should fail validation", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
