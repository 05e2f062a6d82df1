package dashboard

import (
	"context"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Resource is a kind the dashboard counts and checks permissions for.
type Resource struct {
	// Name is the plural resource name reported in counts and permissions.
	Name  string
	Group string
	// Count lists the resource in all namespaces. active is -1 when the kind
	// has no notion of active.
	Count func(ctx context.Context, client kubernetes.Interface) (total, active int, err error)
}

// DefaultResources is the set of kinds shown on the dashboard.
func DefaultResources() []Resource {
	return []Resource{
		{Name: "pods", Count: countPods},
		{Name: "deployments", Group: appsv1.GroupName, Count: countDeployments},
		{Name: "services", Count: countServices},
		{Name: "nodes", Count: countNodes},
		{Name: "namespaces", Count: countNamespaces},
	}
}

func countPods(ctx context.Context, client kubernetes.Interface) (int, int, error) {
	list, err := client.CoreV1().Pods(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return 0, 0, err
	}
	active := 0
	for i := range list.Items {
		if list.Items[i].Status.Phase == corev1.PodRunning {
			active++
		}
	}
	return len(list.Items), active, nil
}

func countDeployments(ctx context.Context, client kubernetes.Interface) (int, int, error) {
	list, err := client.AppsV1().Deployments(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return 0, 0, err
	}
	active := 0
	for i := range list.Items {
		if list.Items[i].Status.AvailableReplicas > 0 {
			active++
		}
	}
	return len(list.Items), active, nil
}

func countServices(ctx context.Context, client kubernetes.Interface) (int, int, error) {
	list, err := client.CoreV1().Services(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return 0, 0, err
	}
	return len(list.Items), -1, nil
}

func countNodes(ctx context.Context, client kubernetes.Interface) (int, int, error) {
	list, err := client.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return 0, 0, err
	}
	active := 0
	for i := range list.Items {
		for _, cond := range list.Items[i].Status.Conditions {
			if cond.Type == corev1.NodeReady && cond.Status == corev1.ConditionTrue {
				active++
				break
			}
		}
	}
	return len(list.Items), active, nil
}

func countNamespaces(ctx context.Context, client kubernetes.Interface) (int, int, error) {
	list, err := client.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return 0, 0, err
	}
	return len(list.Items), -1, nil
}
