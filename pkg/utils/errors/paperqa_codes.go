package errors

// paperqa 服务错误码: AA=20 (问答), AA=21 (文档入库)

var (
	// 请求参数错误 (类别 01)
	ErrInvalidQuestion = NewRequestErr(ServicePaperQA, 1, "Question and article id are required", "问题和文章 ID 不能为空")
	ErrInvalidFeedback = NewRequestErr(ServicePaperQA, 2, "Feedback must be accept or deny", "反馈只能为 accept 或 deny")

	// 资源错误 (类别 04)
	ErrArticleNotFound = NewNotFoundErr(ServicePaperQA, 1, "Article not found", "文章不存在")
	ErrReportNotFound  = NewNotFoundErr(ServicePaperQA, 2, "Report not found", "报告不存在")

	// 工作流错误
	ErrWorkflowProvider   = NewNetworkErr(ServicePaperQA, 1, "Retrieval provider failed", "检索服务调用失败")
	ErrWorkflowGrading    = NewNetworkErr(ServicePaperQA, 2, "Evidence grading failed", "证据评估失败")
	ErrWorkflowGeneration = NewNetworkErr(ServicePaperQA, 3, "Answer generation failed", "答案生成失败")
	ErrWorkflowInvalid    = NewInternalErr(ServicePaperQA, 1, "Workflow misconfigured", "工作流配置错误")
	ErrQueryTimeout       = NewTimeoutErr(ServicePaperQA, 1, "Query timeout", "查询超时")

	// 摘要与报告
	ErrSummaryFailed = NewInternalErr(ServicePaperQA, 2, "Summary generation failed", "摘要生成失败")
	ErrReportIndex   = NewInternalErr(ServicePaperQA, 3, "Report indexing failed", "报告索引失败")

	// 文档入库 (AA=21)
	ErrIngestSource  = NewNetworkErr(ServiceIngest, 1, "Document source unavailable", "文档源不可用")
	ErrIngestExtract = NewInternalErr(ServiceIngest, 1, "Document text extraction failed", "文档文本提取失败")
	ErrIngestEmbed   = NewInternalErr(ServiceIngest, 2, "Document embedding failed", "文档向量化失败")
	ErrIngestIndex   = NewInternalErr(ServiceIngest, 3, "Document indexing failed", "文档索引失败")
)
