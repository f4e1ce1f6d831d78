package main

import (
	"fmt"

	"github.com/rs/zerolog"
)

// ValidateFlags 验证命令行标志
func ValidateFlags(number int, logLevel string) error {
	// 验证图片数量
	if number < 1 {
		return fmt.Errorf("图片数量必须大于0,当前值: %d", number)
	}

	// 验证日志级别
	if logLevel != "" {
		if _, err := zerolog.ParseLevel(logLevel); err != nil {
			return fmt.Errorf("无效的日志级别: %s (有效值: trace, debug, info, warn, error)", logLevel)
		}
	}

	return nil
}
