// 版权所有 2024 EduFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 实现分层题目缓存：精确匹配、主题集、语义相似度与跨学科回退。

# 概述

题目生成是整条管线中最昂贵的一步。本包在生成之前按主题逐个执行
四步查找（指纹精确匹配 → 主题集 → 带上下文语义匹配 → 跨学科回退），
把可复用的历史题目计入配额，只把残余题数交给下游生成器。

# 核心类型

  - DirectCache：指纹 / 主题集精确缓存，键为稳定滚动哈希。
  - SemanticCache：按学科分桶的哈希表，余弦相似度线性扫描取最优。
  - Stage：按主题编排四步查找的请求级状态机，持有会话去重集合
    与审计轨迹；Process 每次调用即一个会话。
  - Sink：审计日志汇，每主题每请求一条结构化记录。

# 错误语义

存储不可达与负载解析失败都在调用点降级为未命中并记录日志，
绝不中断剩余步骤或剩余主题；缓存未命中只是让下游多一次生成调用。
*/
package cache
