// 版权所有 2024 EduFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 topic 提供主题名规范化与同义词解析能力。

# 概述

不同管线阶段产出的自由文本主题名（"Concepts of C++"、"core C++"、"cpp"）
必须折叠到同一个缓存桶。本包通过三段式处理实现：小写化与字符清洗、
难度形容词剔除、前导限定短语剥离，再经静态别名表解析同义词。

别名解析是静态可审查的精确匹配，不做模糊或 ML 匹配——以可召回率
换取确定性。

# 核心函数

  - Normalize：规范化主题名，返回 Normalized 结构（原文、规范形、
    剥离形与别名集）。
  - NormalizeSubject：规范化学科名（仅小写与字符清洗）。
  - Aliases：查询剥离形主题的同义词集合。
  - Match：判断两个主题是否折叠到同一缓存桶。
*/
package topic
