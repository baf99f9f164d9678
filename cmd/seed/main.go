package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	adminapp "github.com/sngm3741/bizsurvey-services/api/internal/admin/application"
	admindomain "github.com/sngm3741/bizsurvey-services/api/internal/admin/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/catalog"
	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
	"github.com/sngm3741/bizsurvey-services/api/internal/infrastructure/auth"
	mongodoc "github.com/sngm3741/bizsurvey-services/api/internal/infrastructure/mongo"
	publicapp "github.com/sngm3741/bizsurvey-services/api/internal/public/application"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

type seedOptions struct {
	envName         string
	dropCollections bool
	demoCount       int
	demoDays        int
	randomSeed      int64
	adminEmail      string
	adminName       string
	adminPassword   string
}

func main() {
	opts := parseFlags()

	if err := loadEnvFiles(opts.envName); err != nil {
		log.Fatalf("環境変数の読み込みに失敗しました: %v", err)
	}

	cols := mongodoc.Collections{
		Surveys:             envOrDefault("SURVEY_COLLECTION", "surveys"),
		Industries:          envOrDefault("INDUSTRY_COLLECTION", "industries"),
		Users:               envOrDefault("USER_COLLECTION", "admin_users"),
		FailedNotifications: envOrDefault("FAILED_NOTIFICATION_COLLECTION", "failed_notifications"),
	}
	mongoURI := envOrDefault("MONGO_URI", "mongodb://localhost:27017")
	dbName := envOrDefault("MONGO_DB", "bizsurvey")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("MongoDB 接続に失敗しました: %v", err)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()
	db := client.Database(dbName)

	if opts.dropCollections {
		if err := dropCollections(ctx, db, cols); err != nil {
			log.Fatalf("コレクション削除に失敗しました: %v", err)
		}
		log.Printf("既存コレクションを削除しました")
	}
	if err := mongodoc.EnsureIndexes(ctx, db, cols); err != nil {
		log.Fatalf("インデックス作成に失敗しました: %v", err)
	}

	cat, err := catalog.Load()
	if err != nil {
		log.Fatalf("カタログの読み込みに失敗しました: %v", err)
	}
	industryRepo := mongodoc.NewIndustryRepository(db, cols.Industries)
	inserted, err := upsertCatalog(ctx, industryRepo, cat)
	if err != nil {
		log.Fatalf("業種カタログの投入に失敗しました: %v", err)
	}
	log.Printf("業種カタログ: %d 件 (新規 %d 件)", len(cat.Industries), inserted)

	if opts.adminEmail != "" {
		if err := bootstrapAdmin(ctx, db, cols, opts); err != nil {
			log.Fatalf("管理者ユーザーの作成に失敗しました: %v", err)
		}
	}

	if opts.demoCount > 0 {
		rng := rand.New(rand.NewSource(opts.randomSeed))
		created, err := seedDemoSurveys(ctx, db, cols, industryRepo, cat, rng, opts)
		if err != nil {
			log.Fatalf("デモ回答の投入に失敗しました: %v", err)
		}
		log.Printf("デモ回答: %d 件", created)
	}

	log.Printf("Seed 完了: Mongo: %s / %s (env=%s)", mongoURI, dbName, opts.envName)
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.StringVar(&opts.envName, "env", "local", "env ディレクトリ内の env ファイル名 (例: local, staging)")
	flag.BoolVar(&opts.dropCollections, "drop", false, "既存コレクションを削除してから投入する")
	flag.IntVar(&opts.demoCount, "demo", 0, "生成するデモ回答数")
	flag.IntVar(&opts.demoDays, "demo-days", 180, "デモ回答の提出日を遡る日数")
	flag.Int64Var(&opts.randomSeed, "seed", time.Now().UnixNano(), "乱数シード（再現用）")
	flag.StringVar(&opts.adminEmail, "admin-email", "", "作成する管理者のメールアドレス")
	flag.StringVar(&opts.adminName, "admin-name", "Administrator", "作成する管理者の表示名")
	flag.StringVar(&opts.adminPassword, "admin-password", "", "作成する管理者のパスワード (未指定なら SEED_ADMIN_PASSWORD)")
	flag.Parse()

	if opts.demoCount < 0 {
		log.Fatal("demo は 0 以上を指定してください")
	}
	if opts.demoDays <= 0 {
		opts.demoDays = 1
	}
	return opts
}

// upsertCatalog は埋め込みカタログを業種コレクションへ反映し、新規作成件数を返す。
func upsertCatalog(ctx context.Context, repo *mongodoc.IndustryRepository, cat *catalog.Catalog) (int, error) {
	now := time.Now().UTC()
	inserted := 0
	for i := range cat.Industries {
		created, err := repo.Upsert(ctx, &cat.Industries[i], now)
		if err != nil {
			return inserted, fmt.Errorf("upsert %s: %w", cat.Industries[i].Slug, err)
		}
		if created {
			inserted++
		}
	}
	return inserted, nil
}

func bootstrapAdmin(ctx context.Context, db *mongo.Database, cols mongodoc.Collections, opts seedOptions) error {
	password := opts.adminPassword
	if password == "" {
		password = os.Getenv("SEED_ADMIN_PASSWORD")
	}
	users := adminapp.NewUserService(mongodoc.NewUserRepository(db, cols.Users), auth.NewBcryptHasher(0))
	user, err := users.Create(ctx, adminapp.CreateUserCommand{
		Email:    opts.adminEmail,
		Name:     opts.adminName,
		Password: password,
		Role:     admindomain.RoleAdmin.String(),
	})
	if errors.Is(err, domainerr.ErrConflict) {
		log.Printf("管理者 %s は既に存在するためスキップしました", opts.adminEmail)
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("管理者を作成しました: %s (%s)", user.Email, user.ID)
	return nil
}

// seedDemoSurveys は公開フォームと同じ検証を通してデモ回答を保存し、一部にレビュー結果を付与する。
func seedDemoSurveys(ctx context.Context, db *mongo.Database, cols mongodoc.Collections, industries *mongodoc.IndustryRepository, cat *catalog.Catalog, rng *rand.Rand, opts seedOptions) (int, error) {
	active, err := industries.FindAll(ctx, true)
	if err != nil {
		return 0, err
	}
	if len(active) == 0 {
		return 0, errors.New("有効な業種がありません")
	}

	window := time.Duration(opts.demoDays) * 24 * time.Hour
	end := time.Now().UTC()
	submissions := publicapp.NewSubmissionService(publicapp.SubmissionConfig{
		Industries:  industries,
		Submissions: mongodoc.NewSurveyRepository(db, cols.Surveys),
		Common:      cat.Common,
		Now: func() time.Time {
			return end.Add(-time.Duration(rng.Int63n(int64(window))))
		},
	})
	reviews := adminapp.NewSurveyService(adminapp.SurveyConfig{
		Surveys:    mongodoc.NewAdminSurveyRepository(db, cols.Surveys),
		Industries: industries,
		Common:     cat.Common,
	})

	created := 0
	for i := 0; i < opts.demoCount; i++ {
		industry := active[rng.Intn(len(active))]
		questions := questionnaire.MergeQuestions(cat.Common, industry.Questions)
		submission, err := submissions.Submit(ctx, publicapp.SubmitSurveyCommand{
			Industry:  industry.Slug,
			Answers:   demoAnswers(rng, questions),
			Consent:   true,
			ClientIP:  "127.0.0.1",
			UserAgent: "bizsurvey-seed",
		})
		if err != nil {
			return created, fmt.Errorf("submit %s: %w", industry.Slug, err)
		}
		created++

		status := demoStatus(rng)
		if status == admindomain.StatusPending {
			continue
		}
		if _, err := reviews.UpdateStatus(ctx, submission.ID, adminapp.UpdateStatusCommand{
			Status:     status.String(),
			ReviewedBy: "seed@bizsurvey.local",
		}); err != nil {
			return created, fmt.Errorf("review %s: %w", submission.ID, err)
		}
	}
	return created, nil
}

func demoStatus(rng *rand.Rand) admindomain.Status {
	switch n := rng.Intn(10); {
	case n < 4:
		return admindomain.StatusPending
	case n < 8:
		return admindomain.StatusVerified
	case n < 9:
		return admindomain.StatusRejected
	default:
		return admindomain.StatusFlagged
	}
}

func dropCollections(ctx context.Context, db *mongo.Database, cols mongodoc.Collections) error {
	for _, name := range []string{cols.Surveys, cols.Industries, cols.Users, cols.FailedNotifications} {
		if err := db.Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	return nil
}

// loadEnvFiles は env/shared.env と env/<name>.env を読み込む。存在しないファイルは無視する。
func loadEnvFiles(envName string) error {
	base := filepath.Clean(filepath.Join("..", "env"))
	files := []string{
		filepath.Join(base, "shared.env"),
		filepath.Join(base, fmt.Sprintf("%s.env", envName)),
	}
	for _, file := range files {
		if err := loadEnvFile(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%s の読み込みに失敗しました: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
