package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`

	DBType     string `env:"DBType" envDefault:"sqlite"`
	DSNURL     string `env:"DSN_URL" envDefault:""`
	DBUser     string `env:"DBUser" envDefault:""`
	DBPassword string `env:"DBPassword" envDefault:""`
	DBAddr     string `env:"DBAddr" envDefault:""`
	DBName     string `env:"DBName" envDefault:"orgdir"`
	DBPath     string `env:"DBPath" envDefault:"datas/orgdir.db"`
	DBPort     string `env:"DBPort" envDefault:"3306"`

	AvatarStoreType     string `env:"AVATAR_STORE_TYPE" envDefault:"local"`
	AvatarLocalDir      string `env:"AVATAR_LOCAL_DIR" envDefault:"datas/avatars"`
	AvatarPublicBaseURL string `env:"AVATAR_PUBLIC_BASE_URL" envDefault:"/avatars"`

	// S3-compatible backends (plain S3, R2 and friends via endpoint override).
	AvatarS3Region          string `env:"AVATAR_S3_REGION"`
	AvatarS3Bucket          string `env:"AVATAR_S3_BUCKET"`
	AvatarS3Prefix          string `env:"AVATAR_S3_PREFIX"`
	AvatarS3Endpoint        string `env:"AVATAR_S3_ENDPOINT"`
	AvatarS3AccessKeyID     string `env:"AVATAR_S3_ACCESS_KEY_ID"`
	AvatarS3SecretAccessKey string `env:"AVATAR_S3_SECRET_ACCESS_KEY"`
	AvatarS3SessionToken    string `env:"AVATAR_S3_SESSION_TOKEN"`
	AvatarS3ForcePathStyle  bool   `env:"AVATAR_S3_FORCE_PATH_STYLE" envDefault:"false"`

	AvatarOSSEndpoint        string `env:"AVATAR_OSS_ENDPOINT"`
	AvatarOSSBucket          string `env:"AVATAR_OSS_BUCKET"`
	AvatarOSSPrefix          string `env:"AVATAR_OSS_PREFIX"`
	AvatarOSSAccessKeyID     string `env:"AVATAR_OSS_ACCESS_KEY_ID"`
	AvatarOSSAccessKeySecret string `env:"AVATAR_OSS_ACCESS_KEY_SECRET"`

	AvatarCOSBucketURL string `env:"AVATAR_COS_BUCKET_URL"`
	AvatarCOSPrefix    string `env:"AVATAR_COS_PREFIX"`
	AvatarCOSSecretID  string `env:"AVATAR_COS_SECRET_ID"`
	AvatarCOSSecretKey string `env:"AVATAR_COS_SECRET_KEY"`

	JWTSecret            string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTIssuer            string `env:"JWT_ISSUER" envDefault:"orgdir"`
	JWTExpirationMinutes int    `env:"JWT_EXPIRATION_MINUTES" envDefault:"1440"`
}

func ParseConfig() (Config, error) {
	var Conf Config
	err := env.Parse(&Conf)
	if err != nil {
		logrus.WithError(err).Error("env.Parse error")
		return Config{}, err
	}
	logrus.Debugf("%#v\n", Conf)
	return Conf, nil
}
