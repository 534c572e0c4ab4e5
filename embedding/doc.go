// 版权所有 2024 EduFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

// Package embedding 提供统一的文本嵌入提供者接口和实现.
//
// 语义缓存依赖外部嵌入服务把查询文本映射为定长浮点向量。
// 本包定义 Provider 抽象，并提供 OpenAI 兼容的 HTTP 实现
// 与用于测试 / 本地开发的确定性 Static 实现。
package embedding
