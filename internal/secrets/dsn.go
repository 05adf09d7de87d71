package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	rdsauth "github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"stac-loader/internal/shared/telemetry"
)

// Source names where the catalog store credentials come from, in
// precedence order: a Secrets Manager secret, RDS IAM authentication,
// then a plain DATABASE_URL.
type Source struct {
	SecretARN   string
	Host        string
	User        string
	DBName      string
	Port        string
	DatabaseURL string
}

type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Injection points for tests.
var (
	loadAWSConfig = awsconfig.LoadDefaultConfig
	newSecretsAPI = func(cfg aws.Config) secretsAPI { return secretsmanager.NewFromConfig(cfg) }
	buildRDSToken = rdsauth.BuildAuthToken
)

// dbSecret is the JSON shape stored in the connection secret. Port is a
// json.Number because provisioning tools store it both ways.
type dbSecret struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Host     string      `json:"host"`
	Port     json.Number `json:"port"`
	DBName   string      `json:"dbname"`
}

// ResolveDSN produces the catalog store connection string. The credential
// is resolved once per invocation and treated as opaque afterwards;
// rotation is the secret store's concern.
func ResolveDSN(ctx context.Context, src Source, log telemetry.Logger) (string, error) {
	if log == nil {
		log = telemetry.Std{}
	}

	if strings.TrimSpace(src.SecretARN) != "" {
		return dsnFromSecret(ctx, src.SecretARN)
	}

	if src.Host != "" && src.User != "" && src.DBName != "" {
		return dsnFromIAM(ctx, src, log)
	}

	if strings.TrimSpace(src.DatabaseURL) != "" {
		return src.DatabaseURL, nil
	}

	return "", fmt.Errorf("no database credentials configured: set PGSTAC_SECRET_ARN, POSTGRES_HOST/POSTGRES_USER/POSTGRES_DBNAME, or DATABASE_URL")
}

func dsnFromSecret(ctx context.Context, secretARN string) (string, error) {
	awsCfg, err := loadAWSConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}

	out, err := newSecretsAPI(awsCfg).GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretARN),
	})
	if err != nil {
		return "", fmt.Errorf("get secret value: %w", err)
	}

	var payload []byte
	switch {
	case out.SecretString != nil:
		payload = []byte(*out.SecretString)
	case out.SecretBinary != nil:
		payload = out.SecretBinary
	default:
		return "", fmt.Errorf("secret %s has no value", secretARN)
	}

	var secret dbSecret
	if err := json.Unmarshal(payload, &secret); err != nil {
		return "", fmt.Errorf("decode connection secret: %w", err)
	}
	if secret.Host == "" || secret.Username == "" || secret.DBName == "" {
		return "", fmt.Errorf("connection secret missing host, username, or dbname")
	}

	port := secret.Port.String()
	if port == "" {
		port = "5432"
	}
	return buildDSN(secret.Username, secret.Password, secret.Host, port, secret.DBName), nil
}

func dsnFromIAM(ctx context.Context, src Source, log telemetry.Logger) (string, error) {
	awsCfg, err := loadAWSConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}

	port := src.Port
	if port == "" {
		port = "5432"
	}

	endpoint := src.Host + ":" + port
	token, err := buildRDSToken(ctx, endpoint, awsCfg.Region, src.User, awsCfg.Credentials)
	if err != nil {
		return "", fmt.Errorf("build rds auth token: %w", err)
	}
	log.Info("generated rds iam auth token", map[string]any{"host": src.Host, "user": src.User})

	return buildDSN(src.User, token, src.Host, port, src.DBName), nil
}

func buildDSN(user, password, host, port, dbname string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   host + ":" + port,
		Path:   "/" + dbname,
	}
	return u.String()
}
