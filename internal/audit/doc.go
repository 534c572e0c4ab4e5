// 版权所有 2024 EduFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 audit 提供缓存阶段审计记录的持久化存储，基于 GORM 与 SQLite。

# 概述

缓存阶段对每个主题产出一条审计记录（目标配额、接受数、未命中数、
逐候选的接受/拒绝原因）。本包将这些记录落盘到单文件 SQLite 数据库，
供调参与问题排查时离线查询。Store 实现 cache.Sink，可直接接入
缓存阶段编排器。

# 核心类型

  - Store：审计存储，提供 Write()、ByRequest()、Recent()、Close()。
  - Row：落盘行模型，候选列表以 JSON 列存储。

# 设计要点

  - 写入失败只返回错误，由调用方记日志降级，绝不阻断缓存阶段。
  - 单文件 SQLite，无连接池管理需求，连接数收敛为 1 以避免写锁竞争。
*/
package audit
