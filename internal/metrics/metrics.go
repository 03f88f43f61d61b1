// Package metrics 汇总 Prometheus 指标：HTTP、后台任务与申请流程。
package metrics

const namespace = "jobportal"
