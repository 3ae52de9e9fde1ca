package util

const (
	// RequiredEvaluations 生成报告所需的评价数量（固定评审团规模，精确匹配）
	RequiredEvaluations = 10

	ScoreMin = 0
	ScoreMax = 10

	// ReportStorageNamespace 生成的 PDF 在存储中的固定前缀
	ReportStorageNamespace = "evaluation-reports"

	// DefaultGenerationError 回调未携带错误信息时的兜底文案
	DefaultGenerationError = "PDF generation failed"
)
