// 版权所有 2024 EduFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 quota 负责主题配额的校验与再分配。

# 概述

上游规划器给出的 (主题, 请求题数) 列表不一定与请求总题数一致。
Validator 对齐两者：不足时按策略（轮询 / 优先 / 按比例）补足，
超出时从列表末尾向前缩减且保证每个主题至少保留 1 题。
缩减无法满足下限时返回显式失败结果（携带所需最小总数），
由调用方回退到重新生成主题。

# 数值约束

  - 所有题数为非负整数；
  - 补足分配不会产生负数；
  - 超量路径的每主题下限 1 是硬不变量；
  - 除超量不可缩减外，输出题数之和恒等于目标总数。
*/
package quota
