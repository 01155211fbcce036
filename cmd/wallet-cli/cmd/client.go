package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// apiResponse wallet-server 的统一响应格式
type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type apiClient struct {
	r *resty.Client
}

func newAPIClient() *apiClient {
	return &apiClient{r: resty.New().SetHostURL(serverURL).SetTimeout(timeout)}
}

// call 发送请求，code != 0 时返回错误；out 为 nil 时不解析 data
func (c *apiClient) call(method, path string, body, out interface{}) error {
	var resp apiResponse
	req := c.r.R().SetResult(&resp).SetError(&resp)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	raw, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("请求 %s 失败: %w", path, err)
	}
	if raw.IsError() && resp.Code == 0 {
		return fmt.Errorf("请求 %s 失败: HTTP %d", path, raw.StatusCode())
	}
	if resp.Code != 0 {
		return fmt.Errorf("[%d] %s", resp.Code, resp.Msg)
	}
	if out != nil {
		return json.Unmarshal(resp.Data, out)
	}
	return nil
}

// printJSON 缩进输出
func printJSON(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(b))
}
