// 版权所有 2024 EduFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 pipeline 提供端到端的出题流水线编排：配额校验 → 缓存阶段 →
残量生成 → 缓存回写。

# 概述

Pipeline 将一次出题请求依次交给配额校验器（quota.Validator）、
缓存阶段（cache.Stage）与题目生成器（Generator 接口）。缓存阶段
命中的题目直接复用，剩余配额按主题并发调用生成器补齐，新生成的
题目连同缓存命中一起回写精确缓存、主题集索引与语义缓存，供后续
请求命中。

# 核心类型

  - Pipeline：流水线编排器。
  - Generator：题目生成器接口，由上游 LLM 服务实现。
  - Request / Response：流水线输入输出。

# 错误语义

配额校验失败（超量不可缩减）与生成器错误会中断流水线并返回错误；
缓存回写失败只记日志，绝不影响响应。
*/
package pipeline
