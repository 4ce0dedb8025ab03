package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"knockout/internal/app"
	kocfg "knockout/internal/config"
	"knockout/internal/logger"
)

// 交易日从 09:30 开始模拟
const sessionOpenOffset = 9*time.Hour + 30*time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("KNOCKOUT_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := kocfg.Load(cfgPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("初始化日志文件失败: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("✓ 配置加载成功（环境=%s，标的=%s）", cfg.App.Env, strings.Join(cfg.Feed.Symbols, ","))

	start := promptStartDate(os.Stdin, os.Stdout)
	logger.Infof("回测区间: %s 起 %d 天", start.Format("2006-01-02 15:04"), cfg.Backtest.Days)

	application, err := app.NewApp(cfg, start)
	if err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}
	if err := application.Run(ctx); err != nil {
		log.Fatalf("运行失败: %v", err)
	}
}

// promptStartDate 循环读取 YYYY-MM-DD 起始日，解析失败就重新提示。
// 返回该日 09:30 (UTC) 作为模拟起点。
func promptStartDate(in io.Reader, out io.Writer) time.Time {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "请输入回测起始日期 (YYYY-MM-DD): ")
		if !scanner.Scan() {
			// 输入流关闭（例如管道跑批），退回今天
			today := time.Now().UTC().Truncate(24 * time.Hour)
			return today.Add(sessionOpenOffset)
		}
		text := strings.TrimSpace(scanner.Text())
		day, err := time.ParseInLocation("2006-01-02", text, time.UTC)
		if err != nil {
			fmt.Fprintf(out, "无法解析 %q，请用 YYYY-MM-DD 格式重试\n", text)
			continue
		}
		return day.Add(sessionOpenOffset)
	}
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
