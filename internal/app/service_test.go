package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	repository "github.com/okian/activities/internal/adapters/repository"
	service "github.com/okian/activities/internal/app"
	"github.com/okian/activities/internal/domain/model"
	"github.com/okian/activities/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func startedService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	svc := service.New(append([]service.Option{service.WithLogger(logger.NewNop())}, opts...)...)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["enforceCapacity"], ShouldEqual, true)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithLogger(logger.NewNop()),
			service.WithCapacityEnforcement(false),
			service.WithSeed(nil),
			service.WithTracerProvider(nil),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["enforceCapacity"], ShouldEqual, false)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should report the seeded registry", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["activities"], ShouldEqual, 9)
				So(stats["totalParticipants"], ShouldEqual, 16)
			})

			Convey("And starting again should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})
	})

	Convey("Given a service with an invalid seed", t, func() {
		dup := model.Activity{Name: "Choir", MaxParticipants: 2}
		svc := service.New(
			service.WithLogger(logger.NewNop()),
			service.WithSeed([]model.Activity{dup, dup}),
		)

		Convey("When starting the service", func() {
			err := svc.Start(context.Background())

			Convey("Then it should fail and stay stopped", func() {
				So(errors.Is(err, repository.ErrDuplicateActivity), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
				So(stats, ShouldNotContainKey, "activities")
			})

			Convey("And registry calls should report ErrNotStarted", func() {
				_, err := svc.ListActivities(ctx)
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				_, err = svc.Signup(ctx, "Chess Club", "a@mergington.edu")
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				_, err = svc.Unregister(ctx, "Chess Club", "a@mergington.edu")
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})

			Convey("And stopping again should be a no-op", func() {
				So(func() { svc.Stop() }, ShouldNotPanic)
			})
		})
	})
}

func TestService_Signup(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startedService(t)

		Convey("When a student signs up for Chess Club", func() {
			msg, err := svc.Signup(ctx, "Chess Club", "x@mergington.edu")

			Convey("Then the confirmation should name the student and activity", func() {
				So(err, ShouldBeNil)
				So(msg, ShouldEqual, "Signed up x@mergington.edu for Chess Club")
			})

			Convey("And the roster should include the student", func() {
				activities, err := svc.ListActivities(ctx)
				So(err, ShouldBeNil)
				So(activities["Chess Club"].Participants, ShouldResemble, []string{"x@mergington.edu"})
			})

			Convey("And a second signup should be rejected", func() {
				_, err := svc.Signup(ctx, "Chess Club", "x@mergington.edu")
				So(errors.Is(err, repository.ErrAlreadyRegistered), ShouldBeTrue)
			})
		})

		Convey("When signing up for an unknown activity", func() {
			_, err := svc.Signup(ctx, "Knitting Circle", "x@mergington.edu")

			Convey("Then it should return ErrNotFound", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the email is padded with spaces", func() {
			msg, err := svc.Signup(ctx, "Chess Club", "  y@mergington.edu ")

			Convey("Then the message should carry the trimmed email", func() {
				So(err, ShouldBeNil)
				So(msg, ShouldEqual, "Signed up y@mergington.edu for Chess Club")
			})
		})
	})
}

func TestService_Unregister(t *testing.T) {
	Convey("Given a started service with the seeded rosters", t, func() {
		ctx := context.Background()
		svc := startedService(t)

		Convey("When a seeded student unregisters", func() {
			msg, err := svc.Unregister(ctx, "Drama Club", "ella@mergington.edu")

			Convey("Then the confirmation should name the student and activity", func() {
				So(err, ShouldBeNil)
				So(msg, ShouldEqual, "Unregistered ella@mergington.edu from Drama Club")
				activities, _ := svc.ListActivities(ctx)
				So(activities["Drama Club"].Participants, ShouldResemble, []string{"scarlett@mergington.edu"})
			})
		})

		Convey("When a student who never signed up unregisters", func() {
			_, err := svc.Unregister(ctx, "Drama Club", "nobody@mergington.edu")

			Convey("Then it should return ErrNotRegistered", func() {
				So(errors.Is(err, repository.ErrNotRegistered), ShouldBeTrue)
			})
		})

		Convey("When the email is missing", func() {
			_, err := svc.Unregister(ctx, "Drama Club", "")

			Convey("Then it should return ErrInvalidInput", func() {
				So(errors.Is(err, repository.ErrInvalidInput), ShouldBeTrue)
			})
		})
	})
}

func TestService_Capacity(t *testing.T) {
	tiny := []model.Activity{{Name: "Tiny Club", Description: "d", Schedule: "s", MaxParticipants: 1}}

	Convey("Given a service enforcing capacity", t, func() {
		ctx := context.Background()
		svc := startedService(t, service.WithSeed(tiny))
		_, err := svc.Signup(ctx, "Tiny Club", "a@mergington.edu")
		So(err, ShouldBeNil)

		Convey("When the roster is full", func() {
			_, err := svc.Signup(ctx, "Tiny Club", "b@mergington.edu")

			Convey("Then it should return ErrActivityFull", func() {
				So(errors.Is(err, repository.ErrActivityFull), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service without capacity enforcement", t, func() {
		ctx := context.Background()
		svc := startedService(t, service.WithSeed(tiny), service.WithCapacityEnforcement(false))

		Convey("When more students sign up than there are spots", func() {
			_, err1 := svc.Signup(ctx, "Tiny Club", "a@mergington.edu")
			_, err2 := svc.Signup(ctx, "Tiny Club", "b@mergington.edu")

			Convey("Then both should succeed", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(svc.GetStats()["totalParticipants"], ShouldEqual, 2)
			})
		})
	})
}
