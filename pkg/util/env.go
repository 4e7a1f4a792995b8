package util

import (
	"bufio"
	"os"
	"strings"

	"github.com/spf13/cast"
)

// LoadEnv 按环境加载对应的 .env 文件（.env.development / .env.production）
// 已存在的环境变量不会被覆盖
func LoadEnv(env string) error {
	filename := ".env." + env
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		filename = ".env"
	}

	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// GetEnv 获取字符串环境变量
func GetEnv(key string) string {
	return os.Getenv(key)
}

// GetEnvDefault 获取字符串环境变量，未设置时返回默认值
func GetEnvDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// GetIntEnv 获取整型环境变量，解析失败返回0
func GetIntEnv(key string) int64 {
	return cast.ToInt64(os.Getenv(key))
}

// GetBoolEnv 获取布尔环境变量
func GetBoolEnv(key string) bool {
	return cast.ToBool(os.Getenv(key))
}

// GetFloatEnv 获取浮点环境变量
func GetFloatEnv(key string) float64 {
	return cast.ToFloat64(os.Getenv(key))
}
