package sqlinline

// Claims due video tasks for one polling pass. SKIP LOCKED keeps multiple
// worker replicas from polling the same task; polled_at spaces out provider
// status queries per task.
const QClaimDueVideoTasks = `--sql 8091a2b3-c4d5-4e6f-9708-192a3b4c5d6e
with due as (
  select id
  from media
  where kind = 'VIDEO'
    and status in ('QUEUED', 'RUNNING')
    and (polled_at is null or polled_at < now() - make_interval(secs => $1::int))
  order by created_at asc
  for update skip locked
  limit $2::int
)
update media m
set polled_at = now()
from due
where m.id = due.id
returning m.id, m.prompt_id, m.owner_id, coalesce(m.external_task_id, ''), coalesce(m.status, '');
`
