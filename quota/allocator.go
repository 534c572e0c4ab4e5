package quota

import (
	"go.uber.org/zap"

	"github.com/BaSui01/eduflow/types"
)

// =============================================================================
// ⚖️ 主题配额校验器
// =============================================================================

// Strategy 不足时的补足分配策略
type Strategy string

const (
	// StrategyRoundRobin 轮询 +1 直至补齐
	StrategyRoundRobin Strategy = "round-robin"
	// StrategyPriority 全部补给第一个主题
	StrategyPriority Strategy = "priority"
	// StrategyProportional 按现有题数加权分配，末位主题吸收舍入误差
	StrategyProportional Strategy = "proportional"
)

// Action 校验结果动作
type Action string

const (
	// ActionGenerateBlueprint 主题缺失，交由上游重新规划
	ActionGenerateBlueprint Action = "generate_blueprint"
	// ActionBypass 题数恰好一致，原样通过
	ActionBypass Action = "bypass"
	// ActionRedistributed 不足并已按策略补足
	ActionRedistributed Action = "redistributed"
	// ActionReduced 超量并已从末尾缩减
	ActionReduced Action = "reduced"
)

// ReasonOvercountUnreducible 超量缩减无法满足每主题下限 1
const ReasonOvercountUnreducible = "topics_overcount_unreducible"

// Result 校验结果
// IsValid 为 false 时唯一原因是超量不可缩减，MinCountRequired
// 给出满足下限所需的最小总题数。
type Result struct {
	IsValid          bool
	Action           Action
	Topics           []*types.TopicRequest
	MinCountRequired int
	Reason           string
}

// Validator 主题配额校验器
type Validator struct {
	strategy Strategy
	logger   *zap.Logger
}

// NewValidator 创建校验器；strategy 为空时使用轮询策略
func NewValidator(strategy Strategy, logger *zap.Logger) *Validator {
	if strategy == "" {
		strategy = StrategyRoundRobin
	}
	return &Validator{
		strategy: strategy,
		logger:   logger.With(zap.String("component", "quota_validator")),
	}
}

// Validate 校验主题题数之和是否等于目标总数，不一致时就地调整。
// 负数输入按 0 处理。
func (v *Validator) Validate(topics []*types.TopicRequest, target int) Result {
	if len(topics) == 0 {
		return Result{IsValid: true, Action: ActionGenerateBlueprint}
	}

	sum := 0
	for _, t := range topics {
		if t.NoOfQuestions < 0 {
			t.NoOfQuestions = 0
		}
		sum += t.NoOfQuestions
	}

	switch {
	case sum == target:
		return Result{IsValid: true, Action: ActionBypass, Topics: topics}

	case sum < target:
		v.distribute(topics, target-sum, sum)
		v.logger.Debug("quota undercount redistributed",
			zap.Int("target", target),
			zap.Int("shortfall", target-sum),
			zap.String("strategy", string(v.strategy)),
		)
		return Result{IsValid: true, Action: ActionRedistributed, Topics: topics}

	default:
		return v.reduce(topics, sum-target, target)
	}
}

// distribute 按策略把 shortfall 补分到各主题
func (v *Validator) distribute(topics []*types.TopicRequest, shortfall, sum int) {
	switch v.strategy {
	case StrategyPriority:
		topics[0].NoOfQuestions += shortfall

	case StrategyProportional:
		// 现有题数全为 0 时比例无意义，回退轮询
		if sum == 0 {
			v.roundRobin(topics, shortfall)
			return
		}
		allocated := 0
		for i, t := range topics {
			if i == len(topics)-1 {
				// 末位主题吸收舍入误差，保证总和精确
				t.NoOfQuestions += shortfall - allocated
				break
			}
			share := shortfall * t.NoOfQuestions / sum
			t.NoOfQuestions += share
			allocated += share
		}

	default:
		v.roundRobin(topics, shortfall)
	}
}

func (v *Validator) roundRobin(topics []*types.TopicRequest, shortfall int) {
	for i := 0; shortfall > 0; i++ {
		topics[i%len(topics)].NoOfQuestions++
		shortfall--
	}
}

// reduce 从末尾主题向前缩减 overage，每主题不低于 1。
// 无法吸收时不修改任何主题，返回显式失败。
func (v *Validator) reduce(topics []*types.TopicRequest, overage, target int) Result {
	spare := 0
	for _, t := range topics {
		if t.NoOfQuestions > 1 {
			spare += t.NoOfQuestions - 1
		}
	}
	if spare < overage {
		v.logger.Warn("quota overcount unreducible",
			zap.Int("target", target),
			zap.Int("overage", overage),
			zap.Int("min_count_required", len(topics)),
		)
		return Result{
			IsValid:          false,
			Topics:           topics,
			MinCountRequired: len(topics),
			Reason:           ReasonOvercountUnreducible,
		}
	}

	// 与历史行为保持一致：自末尾向前缩减，不考虑主题优先级
	for i := len(topics) - 1; i >= 0 && overage > 0; i-- {
		take := topics[i].NoOfQuestions - 1
		if take <= 0 {
			continue
		}
		if take > overage {
			take = overage
		}
		topics[i].NoOfQuestions -= take
		overage -= take
	}

	return Result{IsValid: true, Action: ActionReduced, Topics: topics}
}
