// 版权所有 2024 EduFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 store 提供基于 Redis 的缓存存取能力，支持连接池与健康检查。
此包为内部包，不应被外部项目引用。

# 概述

本包封装 go-redis 客户端，为上层缓存子系统提供统一的读写接口。
Manager 负责连接生命周期管理，包括初始化、健康检查与优雅关闭。

# 核心类型

  - Manager：存储管理器，提供字符串键值（Get/SetWithTTL）与
    哈希表（HGet/HGetAll/HSetWithTTL）两组操作，
    哈希写入与续期在单个 pipeline 中原子执行。
  - Config：存储配置，包含地址、密码、连接池大小、默认 TTL
    与健康检查间隔等参数。

# 错误语义

  - 提供 ErrCacheMiss 哨兵错误与 IsCacheMiss 判断函数；
  - 条目只经 TTL 过期淘汰，本包不提供删除接口。
*/
package store
