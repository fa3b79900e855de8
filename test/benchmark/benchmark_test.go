package benchmark

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/form"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/mocks"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/options"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/validation"
)

// Helper function
func fullDraft() *models.UserDraft {
	return &models.UserDraft{
		Name:                 "Jane Doe",
		UserName:             "jane.doe",
		Email:                "jane@example.com",
		EmployeeID:           "EMP-042",
		Gender:               "female",
		Birthday:             "1990-05-17",
		Phone:                "+15551234567",
		Address:              "12 Main St",
		DateOfJoining:        "2024-01-15",
		Department:           "3",
		Designation:          "9",
		ReportTo:             "1",
		Password:             "Str0ng!Pass",
		PasswordConfirmation: "Str0ng!Pass",
		BankName:             "HDFC Bank",
		AccountNumber:        "123456789012",
		IFSC:                 "HDFC0001234",
		PAN:                  "ABCDE1234F",
	}
}

// BenchmarkValidateDraft benchmarks the full rule pass run before submit
func BenchmarkValidateDraft(b *testing.B) {
	rules := validation.NewRules(validation.ModeCreate)
	rules.Now = func() time.Time { return time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC) }
	draft := fullDraft()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if errs := rules.ValidateDraft(draft); len(errs) > 0 {
			b.Fatalf("unexpected errors: %v", errs)
		}
	}
}

// BenchmarkBankingAdvice benchmarks the advisory banking checks
func BenchmarkBankingAdvice(b *testing.B) {
	draft := fullDraft()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		validation.Advise(draft)
	}
}

// BenchmarkEncodePayload benchmarks composing and encoding the multipart body
func BenchmarkEncodePayload(b *testing.B) {
	draft := fullDraft()
	draft.ProfileImage = &models.Attachment{
		Name:        "me.png",
		ContentType: "image/png",
		Data:        make([]byte, 512<<10),
	}
	sections := form.Sections(true)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		p := form.ComposePayload(draft, validation.ModeCreate, 0, sections)
		body, _, err := p.Encode()
		if err != nil {
			b.Fatal(err)
		}
		b.SetBytes(int64(body.Len()))
	}
}

// BenchmarkNormalizeOptions benchmarks normalizing raw option records
func BenchmarkNormalizeOptions(b *testing.B) {
	raw := make([]map[string]any, 1000)
	for i := range raw {
		raw[i] = map[string]any{
			"id":          float64(i + 1),
			"name":        fmt.Sprintf("User %06d", i),
			"department":  map[string]any{"id": float64(3)},
			"designation": "Senior Developer",
			"level":       float64(i % 10),
		}
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if got := options.NormalizeAll(raw); len(got) != len(raw) {
			b.Fatalf("expected %d options, got %d", len(raw), len(got))
		}
	}

	b.ReportMetric(float64(len(raw)*b.N)/b.Elapsed().Seconds(), "rows/sec")
}

// BenchmarkFieldExists benchmarks the uniqueness lookup over 1000 users
func BenchmarkFieldExists(b *testing.B) {
	repo := mocks.NewMockUserRepository()
	for i := 0; i < 1000; i++ {
		repo.Create(context.Background(), &models.User{
			Name:       fmt.Sprintf("Test User %06d", i),
			UserName:   fmt.Sprintf("user%06d", i),
			Email:      fmt.Sprintf("user%06d@test.com", i),
			EmployeeID: fmt.Sprintf("EMP-%06d", i),
		})
	}
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		repo.FieldExists(ctx, models.FieldEmail, "USER000999@test.com", 0)
	}
}

// BenchmarkOptionCacheParallel benchmarks concurrent cache reads
func BenchmarkOptionCacheParallel(b *testing.B) {
	cache := options.NewCache(time.Minute)
	key := options.Key(options.KindDesignations, 3)
	cache.Put(key, []models.Option{{ID: 9, Label: "Senior Developer"}})

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, ok := cache.Get(key); !ok {
				b.Error("cache miss")
				return
			}
		}
	})
}
