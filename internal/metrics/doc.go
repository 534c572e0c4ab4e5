// 版权所有 2024 EduFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的缓存子系统指标采集能力。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离，
支持多维度 label 分组，便于 Grafana 等工具进行可视化与告警。

# 核心类型

  - Collector：指标收集器，持有 Counter 与 Histogram 向量指标。

# 主要能力

  - 命中指标：缓存命中题数按来源（exact/topic_set/semantic/
    cross_subject）分组，未满足配额按学科分组。
  - 阶段指标：缓存阶段耗时 Histogram、已处理主题计数、
    缓存供题总数。
  - 扫描指标：单次语义查找扫描的条目数分布，用于观察
    线性扫描规模是否逼近需要索引的阈值。
*/
package metrics
