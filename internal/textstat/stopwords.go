package textstat

// DefaultStopwords are filler words common in casual Chinese group chat.
var DefaultStopwords = []string{
	"的", "了", "和", "是", "就", "都", "而", "及", "与", "着",
	"或", "一个", "没有", "这个", "那个", "这样", "那样", "这些",
	"那些", "在", "我", "你", "他", "她", "它", "们", "可以",
	"这", "那", "不", "也", "很", "但", "还", "到", "对", "说",
	"被", "让", "给", "从", "向", "再", "有", "个", "然后", "因为",
	"已经", "于是", "这么", "那么", "什么", "谁", "为什么",
	"我们", "你们", "他们", "不是", "就是", "现在", "还是", "自己",
	"但是", "怎么", "今天", "不能", "知道", "应该", "还有", "问题",
	"一下", "一直", "一定", "一样", "一些", "时候", "出来", "觉得",
	"可能", "如果", "所以", "只是", "需要", "不要", "不会",
	"时间", "怎么样", "如何", "哪里", "啊", "吧", "呢", "吗", "啦", "呀", "哦",
	"一般", "一起", "不过", "之前", "之后", "以前", "以后", "其实",
	"大家", "每个", "每天", "有点", "比较", "完全", "真的", "确实",
	"总是", "马上", "立刻", "曾经", "赶紧", "只要",
	"必须", "可是", "或者", "要是", "其他", "别人", "反正", "无法",
	"看看", "是不是", "感觉", "不如", "直接", "起来",
	"看到", "看着", "看了", "感到", "认为",
	"下去", "上来", "进来", "出去", "过来", "回去",
	"好像", "多少", "这种", "有没有", "开始", "不行", "群里",
	"旺柴", "捂脸",
	"东西", "估计", "有人", "一点", "很多", "肯定", "为啥", "不到", "不用", "的话",
	"10", "两个", "不了", "只有", "不好", "只能", "一年", "几个",
}
