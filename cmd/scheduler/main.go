package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"fitplan/engine/internal/config"
	"fitplan/engine/internal/repository/mongo"
	"fitplan/engine/internal/service"
)

// The scheduler binary is the "external scheduler" the engine assumes: a
// cron-invoked, discrete job. Each invocation runs one bounded job and
// exits; both jobs are idempotent, so rerunning after a failure is the
// recovery path.
func main() {
	job := flag.String("job", "all", "job to run: generate | expire | all")
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	log.Println("Starting workout plan scheduler...")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Scheduler.JobTimeout)
	defer cancel()

	// Index bootstrap runs inline: the unique indexes are what make
	// concurrent generation and activation safe, so a job must not proceed
	// without them.
	indexCtx, indexCancel := context.WithTimeout(ctx, 1*time.Minute)
	defer indexCancel()
	if err := mongo.EnsureWorkoutPlanIndexes(indexCtx, appDB.Collection("workout_plans")); err != nil {
		log.Fatalf("FATAL: Failed to ensure workout plan indexes: %v", err)
	}
	if err := mongo.EnsureScheduledInstanceIndexes(indexCtx, appDB.Collection("scheduled_exercises")); err != nil {
		log.Fatalf("FATAL: Failed to ensure scheduled instance indexes: %v", err)
	}
	if err := mongo.EnsureExerciseIndexes(indexCtx, appDB.Collection("exercises")); err != nil {
		log.Fatalf("FATAL: Failed to ensure exercise indexes: %v", err)
	}

	planRepo := mongo.NewMongoWorkoutPlanRepository(appDB)
	instanceRepo := mongo.NewMongoScheduledInstanceRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)

	generationService := service.NewGenerationService(planRepo, instanceRepo, exerciseRepo)
	activationService := service.NewActivationService(planRepo)

	failed := false

	if *job == "expire" || *job == "all" {
		count, err := activationService.DeactivateExpired(ctx)
		if err != nil {
			log.Printf("ERROR: Expiry sweep failed: %v", err)
			failed = true
		} else {
			log.Printf("Expiry sweep complete: %d plan(s) deactivated.", count)
		}
	}

	if *job == "generate" || *job == "all" {
		sweep, err := generationService.GenerateForAllActivePlans(ctx)
		if sweep != nil {
			for _, outcome := range sweep.Outcomes {
				switch {
				case outcome.Error != "":
					log.Printf("ERROR: plan %s (%s): %s", outcome.PlanID.Hex(), outcome.PlanName, outcome.Error)
				case outcome.Result != nil && !outcome.Result.Success:
					log.Printf("WARN: plan %s (%s): %s", outcome.PlanID.Hex(), outcome.PlanName, outcome.Result.Message)
				case outcome.Result != nil && outcome.Result.Created > 0:
					log.Printf("Plan %s (%s): %d instance(s) created.", outcome.PlanID.Hex(), outcome.PlanName, outcome.Result.Created)
				}
			}
			log.Printf("Generation sweep complete: %d plan(s) processed, %d instance(s) created, %d failure(s).",
				len(sweep.Outcomes), sweep.TotalCreated, sweep.Failures)
		}
		if err != nil {
			log.Printf("ERROR: Generation sweep failed: %v", err)
			failed = true
		} else if sweep != nil && sweep.Failures > 0 {
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
	log.Println("Scheduler run finished.")
}
