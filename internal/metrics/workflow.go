package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	applicationsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "applications_submitted_total",
		Help:      "成功提交的职位申请数。",
	})

	applicationStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "application_status_changes_total",
			Help:      "申请状态变更次数，按目标状态区分。",
		},
		[]string{"status"},
	)

	resumeUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resume_uploads_total",
			Help:      "简历上传结果。",
		},
		[]string{"outcome"},
	)

	resumesPurged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resumes_purged_total",
		Help:      "后台清理删除的简历对象数。",
	})
)

// ApplicationSubmitted 记录一次成功提交。
func ApplicationSubmitted() { applicationsSubmitted.Inc() }

// ApplicationStatusChanged 记录一次状态变更。
func ApplicationStatusChanged(status string) {
	applicationStatusChanges.WithLabelValues(status).Inc()
}

// ResumeUploaded 记录上传结果：stored、rejected、infected、failed。
func ResumeUploaded(outcome string) { resumeUploads.WithLabelValues(outcome).Inc() }

// ResumesPurged 累加清理的对象数。
func ResumesPurged(n int) {
	if n > 0 {
		resumesPurged.Add(float64(n))
	}
}
