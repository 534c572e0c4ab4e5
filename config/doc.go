// 版权所有 2024 EduFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 config 提供 EduFlow 的统一配置加载，支持 YAML 文件 + 环境变量覆盖
与配置文件变更监听。

# 概述

Loader 以 Builder 模式组装：默认值 → YAML 文件 → 环境变量，三层
依次覆盖。FileWatcher 以轮询 + 防抖方式监听配置文件变更，
ReloadManager 在变更时重新加载并通知订阅方，用于运行期调整缓存
相似度阈值等可热更字段。

# 使用方法

	cfg, err := config.NewLoader().
	    WithConfigPath("config.yaml").
	    WithEnvPrefix("EDUFLOW").
	    Load()
*/
package config
