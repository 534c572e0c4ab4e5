// Copyright (c) EduFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 EduFlow 服务端程序入口。

# 概述

cmd/eduflow 是分层题目缓存服务的可执行入口，提供出题 HTTP API、
健康检查和版本查询等子命令。程序支持 YAML 配置文件加载、结构化
日志（zap）、Prometheus 指标采集以及缓存阈值的配置热重载。

# 核心类型

  - Server           — 主服务器，管理 HTTP、Metrics 双端口及优雅关闭
  - Middleware       — HTTP 中间件函数签名 func(http.Handler) http.Handler
  - responseWriter   — 包装 http.ResponseWriter 以捕获状态码

# 主要能力

  - 子命令：serve（启动服务）、version、health
  - 中间件链：Recovery、RequestID、SecurityHeaders、RequestLogger、
    APIKeyAuth（X-API-Key）
  - 配置热重载：ReloadManager 监听文件变更，运行期更新缓存阈值
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus）
  - 优雅关闭：信号监听 → 停止热更新 → 关闭 HTTP → 关闭 Metrics
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
