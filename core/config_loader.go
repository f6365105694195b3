package core

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig 从 YAML 文件加载配置到 out。
// 加载顺序：.env (可选) -> 配置文件 -> 环境变量覆盖。
// 环境变量名为配置路径大写并以下划线连接，例如 SERVERCONFIG_PORT。
func LoadConfig(path string, out interface{}) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("加载 .env 文件失败: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("解析配置失败: %w", err)
	}
	return nil
}
