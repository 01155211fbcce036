package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "地址相关操作",
}

var verifyAddressCmd = &cobra.Command{
	Use:   "verify",
	Short: "在设备上校验当前账户的收款地址",
	Long:  `在硬件设备上展示当前选中账户的下一个未使用地址。设备未连接时只返回地址供人工比对。`,
	Run: func(cmd *cobra.Command, args []string) {
		flow, _ := cmd.Flags().GetString("flow")

		var result map[string]json.RawMessage
		if err := newAPIClient().call(resty.MethodPost, "/address/verify", map[string]string{"flow": flow}, &result); err != nil {
			fmt.Println("校验失败:", err)
			os.Exit(1)
		}
		printJSON(result)
	},
}

func init() {
	rootCmd.AddCommand(addressCmd)
	addressCmd.AddCommand(verifyAddressCmd)
	verifyAddressCmd.Flags().String("flow", "buy", "业务流程: buy 或 exchange")
}
