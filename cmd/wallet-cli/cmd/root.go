package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	timeout   time.Duration
)

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "wallet-cli",
	Short: "硬件钱包交易命令行工具",
	Long: `wallet-server 的命令行客户端。
支持在设备上校验收款地址、组装/签名/推送交易，以及初始化模拟设备的加密种子。`,
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080/api/v1", "wallet-server API 地址")
	// 签名需要等待用户在设备上确认
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "请求超时时间")
}
