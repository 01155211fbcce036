package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "查看或设置当前设备和选中账户",
	Run: func(cmd *cobra.Command, args []string) {
		var state json.RawMessage
		if err := newAPIClient().call(resty.MethodGet, "/state", nil, &state); err != nil {
			fmt.Println("查询失败:", err)
			os.Exit(1)
		}
		printJSON(state)
	},
}

func putFromFile(path string) *cobra.Command {
	return &cobra.Command{
		Use:   path + " <file.json>",
		Short: "从 JSON 文件设置 " + path,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Printf("读取文件失败: %v\n", err)
				os.Exit(1)
			}
			if !json.Valid(data) {
				fmt.Println("文件不是有效的 JSON")
				os.Exit(1)
			}
			if err := newAPIClient().call(resty.MethodPut, "/state/"+path, data, nil); err != nil {
				fmt.Println("设置失败:", err)
				os.Exit(1)
			}
			fmt.Println("已更新", path)
		},
	}
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(putFromFile("device"), putFromFile("account"))
}
