package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/unieval/evaluation-backend/internal/config"
	"github.com/unieval/evaluation-backend/internal/database"
	"github.com/unieval/evaluation-backend/internal/logger"
	"github.com/unieval/evaluation-backend/internal/model"
	"github.com/unieval/evaluation-backend/internal/repository"
	"github.com/unieval/evaluation-backend/internal/service"
)

const (
	courseCode   = "DEMO101"
	studentCount = 50
	seedPassword = "evaluation-demo"
)

// Seeds a demo course with enrolled students for local development.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, "seed-students")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)
	enrollmentRepo := repository.NewEnrollmentRepository(pool)
	questionnaireRepo := repository.NewQuestionnaireRepository(pool)

	authService := service.NewAuthService(cfg, userRepo, nil, log)
	userService := service.NewUserService(userRepo, authService, log)
	courseService := service.NewCourseService(courseRepo)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, userRepo, questionnaireRepo, log)

	fmt.Printf("=== Seeding %d Students into %s ===\n", studentCount, courseCode)

	var courseID int64
	err = pool.QueryRow(ctx, "SELECT id FROM courses WHERE code = $1", courseCode).Scan(&courseID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Fatal().Err(err).Msg("Failed to check existing course")
		}
		fmt.Printf("Course %s not found. Creating it...\n", courseCode)
		course, err := courseService.Create(ctx, &model.CourseRequest{
			Code:       courseCode,
			Name:       "Introduction to Course Evaluation",
			Department: "Computer Science",
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create course")
		}
		courseID = course.ID
		fmt.Printf("Created course with ID: %d\n", courseID)
	} else {
		fmt.Printf("Found existing course with ID: %d\n", courseID)
	}

	firstNames := []string{"Alex", "Sam", "Robin", "Jordan", "Casey", "Taylor", "Morgan", "Jamie", "Avery", "Riley"}
	lastNames := []string{"Meyer", "Okafor", "Silva", "Nakamura", "Novak"}

	successCount := 0
	for i := 0; i < studentCount; i++ {
		student, err := userService.Create(ctx, &model.CreateUserRequest{
			Email:      fmt.Sprintf("student%02d@uni.test", i+1),
			Password:   seedPassword,
			Role:       string(model.RoleStudent),
			Department: "Computer Science",
			FirstName:  firstNames[i%len(firstNames)],
			LastName:   lastNames[(i/len(firstNames))%len(lastNames)],
		})
		if err != nil {
			fmt.Printf("Error creating student%02d: %v\n", i+1, err)
			continue
		}

		if err := enrollmentService.Enroll(ctx, student.ID, courseID); err != nil {
			fmt.Printf("Error enrolling %s: %v\n", student.Email, err)
			continue
		}

		successCount++
		if (i+1)%10 == 0 {
			fmt.Printf("Created %d students...\n", i+1)
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d students.\n", successCount, studentCount)
}
