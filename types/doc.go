// 版权所有 2024 EduFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 types 定义题目生成管线各阶段共享的核心数据类型。

# 核心类型

  - TopicRequest：上游规划器产出的单个主题请求，携带请求题数、
    难度标签与缓存命中列表，配额校验与缓存阶段会就地修改它。
  - CachedQuestion：从缓存条目解析出的单道题目，所有权在返回后
    转移给调用方。
  - QuestionSource：缓存命中来源（exact / semantic）。

本包不依赖任何其他内部包，处于依赖图的最底层。
*/
package types
