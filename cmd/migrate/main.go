package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/repository"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/database"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
)

const usage = "Usage: go run ./cmd/migrate [drop|up|seed|reset]"

func main() {
	log, err := logger.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		log.Debug(".env file not found, using the process environment")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}
	command := os.Args[1]

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, dbURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	switch command {
	case "drop":
		if err := db.Exec(ctx, repository.DropStatements...); err != nil {
			log.WithError(err).Fatal("Failed to drop tables")
		}
		log.Info("All tables dropped")

	case "up":
		if err := db.Exec(ctx, repository.SchemaStatements...); err != nil {
			log.WithError(err).Fatal("Failed to create tables")
		}
		log.Info("All tables created")

	case "reset":
		if err := db.Exec(ctx, repository.DropStatements...); err != nil {
			log.WithError(err).Fatal("Failed to drop tables")
		}
		if err := db.Exec(ctx, repository.SchemaStatements...); err != nil {
			log.WithError(err).Fatal("Failed to create tables")
		}
		log.Info("Schema recreated")

	case "seed":
		repos := repository.NewRepositories(db)
		for _, event := range seedEvents(time.Now().UTC()) {
			if err := repos.Events.Create(ctx, event); err != nil {
				log.WithError(err).WithField("title", event.Title).Fatal("Failed to seed event")
			}
			log.WithFields(map[string]interface{}{"event_id": event.ID, "title": event.Title}).Info("Seeded event")
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

// seedEvents returns a published team hackathon and a paid workshop, both
// open for registration relative to now.
func seedEvents(now time.Time) []*domain.Event {
	day := 24 * time.Hour
	submissionStart := now.Add(7 * day)
	submissionDeadline := now.Add(9 * day)
	formationDeadline := now.Add(5 * day)
	capacity := 50

	return []*domain.Event{
		{
			ID:                    uuid.NewString(),
			Title:                 "Campus Build Sprint",
			Description:           "Form a team, ship an MVP in forty-eight hours and demo it to the judges.",
			RegistrationStart:     now.Add(-day),
			RegistrationEnd:       now.Add(6 * day),
			EventStart:            now.Add(7 * day),
			EventEnd:              now.Add(9 * day),
			HasSubmission:         true,
			SubmissionStart:       &submissionStart,
			SubmissionDeadline:    &submissionDeadline,
			IsTeamEvent:           true,
			AllowIndividual:       false,
			MinTeamSize:           2,
			MaxTeamSize:           4,
			TeamFormationDeadline: &formationDeadline,
			Status:                domain.EventStatusPublished,
			CreatedBy:             "seed",
			CreatedAt:             now,
			UpdatedAt:             now,
		},
		{
			ID:                uuid.NewString(),
			Title:             "Applied ML Workshop",
			Description:       "A paid, seat-limited hands-on workshop.",
			RegistrationStart: now.Add(-day),
			RegistrationEnd:   now.Add(3 * day),
			EventStart:        now.Add(4 * day),
			EventEnd:          now.Add(4*day + 6*time.Hour),
			MaxParticipants:   &capacity,
			IsPaid:            true,
			RegistrationFee:   499,
			Currency:          "INR",
			Status:            domain.EventStatusPublished,
			CreatedBy:         "seed",
			CreatedAt:         now,
			UpdatedAt:         now,
		},
	}
}
