package quota

import (
	"testing"

	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/BaSui01/eduflow/types"
)

// =============================================================================
// 🧪 配额守恒性质测试
// =============================================================================

// 守恒律：校验通过时输出题数之和恒等于目标总数；
// 不通过时必须显式携带 topics_overcount_unreducible。
func TestProperty_QuotaConservation(t *testing.T) {
	strategies := []Strategy{StrategyRoundRobin, StrategyPriority, StrategyProportional}

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "topics")
		target := rapid.IntRange(0, 100).Draw(rt, "target")
		strategy := strategies[rapid.IntRange(0, 2).Draw(rt, "strategy")]

		topics := make([]*types.TopicRequest, n)
		for i := range topics {
			topics[i] = &types.TopicRequest{
				TopicName:     "topic",
				NoOfQuestions: rapid.IntRange(0, 30).Draw(rt, "count"),
			}
		}

		v := NewValidator(strategy, zap.NewNop())
		res := v.Validate(topics, target)

		if !res.IsValid {
			if res.Reason != ReasonOvercountUnreducible {
				rt.Fatalf("invalid result without explicit reason: %+v", res)
			}
			if res.MinCountRequired != n {
				rt.Fatalf("min count required = %d, want %d", res.MinCountRequired, n)
			}
			return
		}

		sum := 0
		for _, topic := range topics {
			if topic.NoOfQuestions < 0 {
				rt.Fatalf("negative count after validation: %d", topic.NoOfQuestions)
			}
			sum += topic.NoOfQuestions
		}
		if sum != target {
			rt.Fatalf("sum = %d, want %d (strategy=%s)", sum, target, strategy)
		}
	})
}

// 超量路径的下限律：缩减后每个主题不低于缩减前与 1 的较小值
func TestProperty_OvercountFloor(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "topics")

		topics := make([]*types.TopicRequest, n)
		before := make([]int, n)
		sum := 0
		for i := range topics {
			c := rapid.IntRange(1, 30).Draw(rt, "count")
			topics[i] = &types.TopicRequest{TopicName: "topic", NoOfQuestions: c}
			before[i] = c
			sum += c
		}

		// 强制超量
		target := rapid.IntRange(0, sum).Draw(rt, "target")
		v := NewValidator(StrategyRoundRobin, zap.NewNop())
		res := v.Validate(topics, target)

		if !res.IsValid {
			return
		}
		for i, topic := range topics {
			if topic.NoOfQuestions < 1 {
				rt.Fatalf("topic %d reduced below floor: %d", i, topic.NoOfQuestions)
			}
			if topic.NoOfQuestions > before[i] {
				rt.Fatalf("reduction increased topic %d: %d -> %d", i, before[i], topic.NoOfQuestions)
			}
		}
	})
}
